package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/generator"
)

type ShiftGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*domain.GenerationResult, error)
}

type TeamAssigner interface {
	AssignTeam(ctx context.Context, req assignment.Request) (*domain.AssignmentResult, error)
	PreviewConflicts(ctx context.Context, req assignment.Request) (*assignment.ConflictPreview, error)
	CancelAssignment(ctx context.Context, req assignment.CancelRequest) (*domain.TeamAssignment, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	location   *time.Location
	generator  ShiftGenerator
	assigner   TeamAssigner

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, gen ShiftGenerator, assigner TeamAssigner) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		location:   loc,
		generator:  gen,
		assigner:   assigner,

		Mux: chi.NewRouter(),
	}, nil
}

var managers = []domain.Role{domain.RoleManager, domain.RoleAdmin}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	// the manager console is served from another origin and sends the session cookie
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// tokens are issued by the identity service
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.With(h.RequiredRole(managers)).Post("/contracts/{id}/shift-generation", h.GenerateShifts)

		r.Route("/teams/{id}", func(r chi.Router) {
			r.With(h.RequiredRole(managers)).Post("/assignments", h.AssignTeam)
			r.Post("/conflict-check", h.CheckTeamConflicts)
		})

		r.With(h.RequiredRole(managers)).Post("/shift-assignments/{id}/cancel", h.CancelAssignment)
	})
}
