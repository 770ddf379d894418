package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/generator"
)

const testSecret = "test-secret"

type fakeGenerator struct {
	got    generator.Request
	result *domain.GenerationResult
	err    error
}

func (g *fakeGenerator) Generate(_ context.Context, req generator.Request) (*domain.GenerationResult, error) {
	g.got = req
	return g.result, g.err
}

type fakeAssigner struct {
	assignReq  assignment.Request
	previewReq assignment.Request
	cancelReq  assignment.CancelRequest
	result     *domain.AssignmentResult
	err        error
}

func (a *fakeAssigner) AssignTeam(_ context.Context, req assignment.Request) (*domain.AssignmentResult, error) {
	a.assignReq = req
	return a.result, a.err
}

func (a *fakeAssigner) PreviewConflicts(_ context.Context, req assignment.Request) (*assignment.ConflictPreview, error) {
	a.previewReq = req
	return &assignment.ConflictPreview{Descriptions: []string{}}, a.err
}

func (a *fakeAssigner) CancelAssignment(_ context.Context, req assignment.CancelRequest) (*domain.TeamAssignment, error) {
	a.cancelReq = req
	if a.err != nil {
		return nil, a.err
	}
	return &domain.TeamAssignment{ID: req.AssignmentID, Status: domain.AssignmentStatusCancelled}, nil
}

func newTestHandler(t *testing.T, gen ShiftGenerator, assigner TeamAssigner) *Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.CookieName = "__guard_roster_token"
	cfg.Scheduling.Timezone = "UTC"
	cfg.Server.AllowedOrigins = []string{"https://console.example.vn"}

	h, err := NewHandler(cfg, gen, assigner)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func signToken(t *testing.T, role domain.Role, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h *Handler, method, path, token, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestAuthRequired(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{}, &fakeAssigner{})

	rec, resp := do(t, h, http.MethodPost, "/contracts/1/shift-generation", "", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "not signed in", resp.Message)

	_, resp = do(t, h, http.MethodPost, "/contracts/1/shift-generation", "not-a-jwt", `{}`)
	assert.Equal(t, "invalid token", resp.Message)
}

func TestTokenFromCookie(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{}}
	h := newTestHandler(t, gen, &fakeAssigner{})

	req := httptest.NewRequest(http.MethodPost, "/contracts/3/shift-generation", strings.NewReader(`{"from":"2025-01-01","to":"2025-01-08"}`))
	req.AddCookie(&http.Cookie{Name: "__guard_roster_token", Value: signToken(t, domain.RoleAdmin, "1")})
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(3), gen.got.ContractID)
}

func TestGenerateShiftsRequiresManager(t *testing.T) {
	gen := &fakeGenerator{}
	h := newTestHandler(t, gen, &fakeAssigner{})

	_, resp := do(t, h, http.MethodPost, "/contracts/1/shift-generation", signToken(t, domain.RoleGuard, "5"), `{"from":"2025-01-01","to":"2025-01-08"}`)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "permission denied")
	assert.Zero(t, gen.got.ContractID)
}

func TestGenerateShifts(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{CreatedCount: 7}}
	h := newTestHandler(t, gen, &fakeAssigner{})

	_, resp := do(t, h, http.MethodPost, "/contracts/12/shift-generation", signToken(t, domain.RoleManager, "5"),
		`{"templateIds":[4,5],"from":"2025-01-01","to":"2025-01-08"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(12), gen.got.ContractID)
	assert.Equal(t, []int64{4, 5}, gen.got.TemplateIDs)
	assert.Equal(t, "2025-01-01", domain.DateKey(gen.got.From))
	assert.Equal(t, "2025-01-08", domain.DateKey(gen.got.To))

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 7.0, data["createdCount"])
}

func TestGenerateShiftsValidation(t *testing.T) {
	gen := &fakeGenerator{}
	h := newTestHandler(t, gen, &fakeAssigner{})
	token := signToken(t, domain.RoleManager, "5")

	_, resp := do(t, h, http.MethodPost, "/contracts/12/shift-generation", token, `{"from":"2025-01-01"}`)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)

	_, resp = do(t, h, http.MethodPost, "/contracts/12/shift-generation", token, `{"from":"01/01/2025","to":"2025-01-08"}`)
	assert.False(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/contracts/abc/shift-generation", token, `{"from":"2025-01-01","to":"2025-01-08"}`)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid id", resp.Message)

	assert.Zero(t, gen.got.ContractID)
}

func TestGenerateShiftsErrors(t *testing.T) {
	token := signToken(t, domain.RoleManager, "5")
	body := `{"from":"2025-01-01","to":"2025-01-08"}`

	gen := &fakeGenerator{err: domain.NewStructuralError(domain.ErrNoActiveTemplates, "contract 12")}
	h := newTestHandler(t, gen, &fakeAssigner{})
	rec, resp := do(t, h, http.MethodPost, "/contracts/12/shift-generation", token, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "no active shift templates: contract 12", resp.Message)

	gen = &fakeGenerator{
		result: &domain.GenerationResult{CreatedCount: 2},
		err:    &domain.PersistenceError{Op: "insert shift batch", Err: errors.New("connection reset")},
	}
	h = newTestHandler(t, gen, &fakeAssigner{})
	rec, resp = do(t, h, http.MethodPost, "/contracts/12/shift-generation", token, body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, data["createdCount"])
}

func TestAssignTeam(t *testing.T) {
	assigner := &fakeAssigner{result: &domain.AssignmentResult{Success: true, TotalGuardsAssigned: 3}}
	h := newTestHandler(t, &fakeGenerator{}, assigner)

	_, resp := do(t, h, http.MethodPost, "/teams/7/assignments", signToken(t, domain.RoleManager, "42"),
		`{"locationId":3,"contractId":1,"from":"2025-01-01","to":"2025-01-03","timeSlot":"MORNING","notes":"new site"}`)
	assert.True(t, resp.Success)

	got := assigner.assignReq
	assert.Equal(t, int64(7), got.TeamID)
	assert.Equal(t, int64(3), got.LocationID)
	assert.Equal(t, int64(1), *got.ContractID)
	assert.Equal(t, domain.TimeSlotMorning, got.Slot)
	assert.Equal(t, domain.AssignmentTypeTeam, got.AssignmentType)
	assert.Equal(t, int64(42), *got.AssignedBy)
	assert.Equal(t, "new site", got.Notes)
}

func TestAssignTeamRejectsBadSlot(t *testing.T) {
	assigner := &fakeAssigner{}
	h := newTestHandler(t, &fakeGenerator{}, assigner)

	_, resp := do(t, h, http.MethodPost, "/teams/7/assignments", signToken(t, domain.RoleManager, "42"),
		`{"locationId":3,"from":"2025-01-01","to":"2025-01-03","timeSlot":"NIGHT"}`)
	assert.False(t, resp.Success)
	assert.Zero(t, assigner.assignReq.TeamID)
}

func TestAssignTeamConflict(t *testing.T) {
	conflicts := []domain.CrossContractConflict{{Type: domain.ConflictTypeCrossContractShift, OtherContractID: 100}}
	assigner := &fakeAssigner{
		result: &domain.AssignmentResult{Conflicts: conflicts, Errors: []string{"conflict"}},
		err:    &domain.ConflictRejection{Conflicts: conflicts},
	}
	h := newTestHandler(t, &fakeGenerator{}, assigner)

	rec, resp := do(t, h, http.MethodPost, "/teams/7/assignments", signToken(t, domain.RoleManager, "42"),
		`{"locationId":3,"contractId":200,"from":"2025-02-01","to":"2025-02-01","timeSlot":"AFTERNOON"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "another contract")

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data["conflicts"], 1)
}

func TestCheckTeamConflictsOpenToGuards(t *testing.T) {
	assigner := &fakeAssigner{}
	h := newTestHandler(t, &fakeGenerator{}, assigner)

	_, resp := do(t, h, http.MethodPost, "/teams/7/conflict-check", signToken(t, domain.RoleGuard, "5"),
		`{"from":"2025-02-01","to":"2025-02-07","timeSlot":"EVENING"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), assigner.previewReq.TeamID)
	assert.Equal(t, domain.TimeSlotEvening, assigner.previewReq.Slot)
	assert.Nil(t, assigner.previewReq.ContractID)
}

func TestCancelAssignment(t *testing.T) {
	assigner := &fakeAssigner{}
	h := newTestHandler(t, &fakeGenerator{}, assigner)
	token := signToken(t, domain.RoleManager, "42")

	_, resp := do(t, h, http.MethodPost, "/shift-assignments/15/cancel", token, "")
	assert.True(t, resp.Success)
	assert.Equal(t, int64(15), assigner.cancelReq.AssignmentID)
	assert.Empty(t, assigner.cancelReq.Reason)

	_, resp = do(t, h, http.MethodPost, "/shift-assignments/16/cancel", token, `{"reason":"sick leave"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, "sick leave", assigner.cancelReq.Reason)

	assigner.err = domain.NewStructuralError(domain.ErrAssignmentInactive, "assignment 16 is CANCELLED")
	_, resp = do(t, h, http.MethodPost, "/shift-assignments/16/cancel", token, "")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "already cancelled")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{}, &fakeAssigner{})

	req := httptest.NewRequest(http.MethodOptions, "/teams/7/assignments", nil)
	req.Header.Set("Origin", "https://console.example.vn")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	assert.Equal(t, "https://console.example.vn", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
