package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"healthtwin-data/internal/service"
)

// AuthHandler 工作者登录/令牌校验
type AuthHandler struct {
	svc    *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	WorkerID string `json:"worker_id"`
	Password string `json:"password"`
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(r, 64*1024, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	resp, err := h.svc.Login(r.Context(), req.WorkerID, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      resp.Token,
		"expires_in": resp.ExpiresIn,
		"worker": map[string]string{
			"worker_id": resp.Session.WorkerID,
			"name":      resp.Session.Name,
			"role":      resp.Session.Role,
			"state":     resp.Session.State,
			"district":  resp.Session.District,
		},
	})
}

// POST /auth/verify（Authorization: Bearer <token>）
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Verify(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"worker": map[string]string{
			"worker_id": session.WorkerID,
			"name":      session.Name,
			"role":      session.Role,
			"state":     session.State,
			"district":  session.District,
		},
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
