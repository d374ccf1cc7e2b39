// README: Login and registration handlers.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sewaalat/internal/modules/user"
)

type AuthService interface {
	Login(ctx context.Context, creds user.Credentials) (*user.Session, error)
	Register(ctx context.Context, creds user.Credentials) (*user.Session, error)
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{auth: svc}
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type sessionResp struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    sessionUser `json:"data"`
	Token   string      `json:"token"`
}

func newSessionResp(msg string, s *user.Session) sessionResp {
	return sessionResp{
		Success: true,
		Message: msg,
		Data:    sessionUser{ID: s.User.ID, Username: s.User.Username, Role: s.User.Role},
		Token:   s.Token,
	}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), user.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(c, http.StatusOK, newSessionResp("login successful", sess))
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	sess, err := h.auth.Register(c.Request.Context(), user.Credentials{Username: req.Username, Password: req.Password})
	switch {
	case err == nil:
		writeJSON(c, http.StatusCreated, newSessionResp("registration successful", sess))
	case errors.Is(err, user.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "bad_request", "username is required and password must be 6 to 72 characters")
	case errors.Is(err, user.ErrUsernameTaken):
		writeError(c, http.StatusConflict, "username_taken", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
