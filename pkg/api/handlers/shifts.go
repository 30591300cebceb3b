package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"shiftdesk/pkg/models"
	"shiftdesk/pkg/notify"
	"shiftdesk/pkg/store"
	"shiftdesk/pkg/utils"
)

type setShiftRequest struct {
	Key  string        `json:"key" validate:"required"`
	Data *models.Shift `json:"data"`
}

// ListShifts handles GET /api/shifts, returning the full flat-key map.
func (h *Handlers) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.store.ListShifts("")
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, shifts)
}

// SetShift handles POST /api/shifts. A null data payload deletes the record
// (tombstone-by-absence); otherwise it is created or overwritten. The change
// is fanned out to matching subscribers after the write.
func (h *Handlers) SetShift(w http.ResponseWriter, r *http.Request) {
	var req setShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "shift key is required")
		return
	}
	if _, _, _, _, err := models.ParseShiftKey(req.Key); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "malformed shift key")
		return
	}
	if req.Data != nil && !req.Data.ValidType() {
		utils.JSONError(w, http.StatusBadRequest, "unknown shift type")
		return
	}

	_, err := h.store.GetShift(req.Key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	existed := err == nil

	if req.Data == nil {
		if err := h.store.DeleteShift(req.Key); err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "server error")
			return
		}
	} else {
		if err := h.store.SaveShift(req.Key, *req.Data); err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "server error")
			return
		}
	}

	// Deleting a record that never existed is a no-op; nothing to announce.
	if existed || req.Data != nil {
		action := notify.DetermineAction(existed, req.Data)
		go h.notifier.ShiftChanged(context.Background(), req.Key, req.Data, action)
	}

	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"success": true})
}
