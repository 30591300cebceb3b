package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/store"
	"shiftdesk/pkg/utils"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login. Attempts are rate limited per remote
// IP; bad credentials always produce the same 401 message.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if h.limiter != nil && !h.limiter.Allow(ip) {
		utils.JSONError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "enter username and password")
		return
	}

	u, err := h.store.FindUserByUsername(req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusInternalServerError, "server error")
			return
		}
		utils.JSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !auth.CheckPassword(u.Password, req.Password) {
		logger.Warn("login_rejected", zap.String("username", req.Username), zap.String("ip", ip))
		utils.JSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := auth.IssueToken(h.secret, u, h.ttl)
	if err != nil {
		logger.Error("token_issue_failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	logger.Info("login_ok", zap.String("username", u.Username))
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u.Public(),
	})
}

// Verify handles GET /api/auth/verify, echoing the verified claims.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.JSONError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"user": map[string]string{
			"id":       claims.ID,
			"username": claims.Username,
			"role":     claims.Role,
			"name":     claims.Name,
		},
	})
}
