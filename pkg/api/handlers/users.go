package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/utils"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

// ListUsers handles GET /api/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// CreateUser handles POST /api/users. Usernames are unique; the role
// defaults to viewer.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "fill in all fields")
		return
	}
	if _, err := h.store.FindUserByUsername(req.Username); err == nil {
		utils.JSONError(w, http.StatusBadRequest, "user already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleViewer
	}
	u := models.User{
		ID:       utils.GenID(),
		Username: req.Username,
		Password: hash,
		Role:     role,
		Name:     req.Name,
	}
	if err := h.store.SaveUser(u); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u.Public())
}

// DeleteUser handles DELETE /api/users/{id}. Deleting the caller's own
// account is rejected.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil && claims.ID == id {
		utils.JSONError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}
	if err := h.store.DeleteUser(id); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"message": "deleted"})
}
