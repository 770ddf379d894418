package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.failResponse(w, r, msg, nil)
}

func (h *Handler) failResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.internalServerErrorWithData(w, r, err, nil)
}

// internalServerErrorWithData still reports what was committed before the failure.
func (h *Handler) internalServerErrorWithData(w http.ResponseWriter, r *http.Request, err error, data any) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    data,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// serviceError maps the engines' error taxonomy onto the response envelope.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error, data any) {
	var (
		structural *domain.StructuralError
		rejection  *domain.ConflictRejection
		pgErr      *pgconn.PgError
	)
	switch {
	case errors.As(err, &structural):
		h.failResponse(w, r, structural.Error(), data)
	case errors.As(err, &rejection):
		h.failResponse(w, r, "team is already committed to another contract in this time slot", data)
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "shift_assignments_active_guard":
			h.failResponse(w, r, "a guard is already assigned to this shift", data)
		case "shift_assignments_guard_id_fkey", "shift_assignments_team_id_fkey":
			h.failResponse(w, r, "guard or team does not exist", data)
		default:
			h.internalServerErrorWithData(w, r, err, data)
		}
	default:
		h.internalServerErrorWithData(w, r, err, data)
	}
}
