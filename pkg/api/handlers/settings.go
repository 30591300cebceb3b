package handlers

import (
	"encoding/json"
	"net/http"

	"shiftdesk/pkg/models"
	"shiftdesk/pkg/utils"
)

// GetSettings handles GET /api/settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetSettings()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, st)
}

// UpdateSettings handles POST /api/settings: the body is merged field by
// field into the singleton and the merged record is echoed back.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.Settings
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	st, err := h.store.GetSettings()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	st = st.Merge(patch)
	if err := h.store.SaveSettings(st); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, st)
}
