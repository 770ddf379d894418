package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func (h *Handler) AssignTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		LocationID int64  `json:"locationId" validate:"required,gt=0"`
		ContractID *int64 `json:"contractId" validate:"omitempty,gt=0"`
		From       string `json:"from" validate:"required,datetime=2006-01-02"`
		To         string `json:"to" validate:"required,datetime=2006-01-02"`
		TimeSlot   string `json:"timeSlot" validate:"required,oneof=MORNING AFTERNOON EVENING"`
		Notes      string `json:"notes" validate:"max=1000"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	from, to, err := h.parseRange(req.From, req.To)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.assigner.AssignTeam(r.Context(), assignment.Request{
		TeamID:         teamID,
		LocationID:     req.LocationID,
		ContractID:     req.ContractID,
		From:           from,
		To:             to,
		Slot:           domain.TimeSlot(req.TimeSlot),
		AssignedBy:     actorID(r),
		Notes:          req.Notes,
		AssignmentType: domain.AssignmentTypeTeam,
	})
	if err != nil {
		h.serviceError(w, r, err, result)
		return
	}

	h.successResponse(w, r, "team assigned", result)
}

func (h *Handler) CheckTeamConflicts(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		ContractID *int64 `json:"contractId" validate:"omitempty,gt=0"`
		LocationID int64  `json:"locationId" validate:"omitempty,gt=0"`
		From       string `json:"from" validate:"required,datetime=2006-01-02"`
		To         string `json:"to" validate:"required,datetime=2006-01-02"`
		TimeSlot   string `json:"timeSlot" validate:"required,oneof=MORNING AFTERNOON EVENING"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	from, to, err := h.parseRange(req.From, req.To)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	preview, err := h.assigner.PreviewConflicts(r.Context(), assignment.Request{
		TeamID:     teamID,
		LocationID: req.LocationID,
		ContractID: req.ContractID,
		From:       from,
		To:         to,
		Slot:       domain.TimeSlot(req.TimeSlot),
	})
	if err != nil {
		h.serviceError(w, r, err, nil)
		return
	}

	h.successResponse(w, r, "conflict check finished", preview)
}

func (h *Handler) CancelAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := idParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"max=1000"`
	}
	// the body is optional
	if r.ContentLength != 0 {
		if err := h.readJSON(r, &req); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	a, err := h.assigner.CancelAssignment(r.Context(), assignment.CancelRequest{
		AssignmentID: assignmentID,
		Reason:       req.Reason,
	})
	if err != nil {
		h.serviceError(w, r, err, nil)
		return
	}

	h.successResponse(w, r, "assignment cancelled", a)
}
