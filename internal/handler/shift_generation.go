package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/generator"
)

func (h *Handler) GenerateShifts(w http.ResponseWriter, r *http.Request) {
	contractID, err := idParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		TemplateIDs []int64 `json:"templateIds" validate:"omitempty,dive,gt=0"`
		From        string  `json:"from" validate:"required,datetime=2006-01-02"`
		To          string  `json:"to" validate:"required,datetime=2006-01-02"`
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

	result, err := h.generator.Generate(r.Context(), generator.Request{
		ContractID:  contractID,
		TemplateIDs: req.TemplateIDs,
		From:        from,
		To:          to,
	})
	if err != nil {
		h.serviceError(w, r, err, result)
		return
	}

	h.successResponse(w, r, "shifts generated", result)
}
