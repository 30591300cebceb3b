package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"shiftdesk/pkg/models"
	"shiftdesk/pkg/store"
	"shiftdesk/pkg/utils"
)

type createEmployeeRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

// ListEmployees handles GET /api/employees.
func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.store.ListEmployees()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	if emps == nil {
		emps = []models.Employee{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, emps)
}

// CreateEmployee handles POST /api/employees. Without an explicit color the
// palette is cycled by current employee count.
func (h *Handlers) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "enter a name")
		return
	}

	existing, err := h.store.ListEmployees()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	color := req.Color
	if color == "" {
		color = models.Palette[len(existing)%len(models.Palette)]
	}
	e := models.Employee{ID: utils.GenID(), Name: req.Name, Color: color}
	if err := h.store.SaveEmployee(e); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}

	// Delivery is best-effort and never blocks or fails the request.
	go h.notifier.EmployeeAdded(context.Background(), e.Name)

	_ = utils.JSONWrite(w, http.StatusOK, e)
}

// DeleteEmployee handles DELETE /api/employees/{id}: removes the employee,
// every shift keyed under it and any subscription references.
func (h *Handlers) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	emp, err := h.store.GetEmployee(id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	known := err == nil

	if _, err := h.store.DeleteEmployee(id); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	if known {
		go h.notifier.EmployeeRemoved(context.Background(), emp.Name)
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"message": "deleted"})
}
