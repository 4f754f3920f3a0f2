// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// sessionBody is what the login, registration and refresh endpoints return.
func sessionBody(session *services.AuthResponse, message string) gin.H {
	body := gin.H{
		"user":          session.User,
		"token":         session.AccessToken,
		"refresh_token": session.RefreshToken,
		"token_type":    session.TokenType,
		"expires_in":    session.ExpiresIn,
		"is_staff":      session.User.IsStaff(),
	}
	if message != "" {
		body["message"] = message
	}
	return body
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.auth.Register(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, sessionBody(session, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthRegisterSuccess)))
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.auth.Login(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, sessionBody(session, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthLoginSuccess)))
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.auth.RefreshToken(req.RefreshToken)
	switch {
	case errors.Is(err, services.ErrAccountDisabled):
		respondError(c, err)
	case err != nil:
		utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
	default:
		utils.SuccessResponse(c, sessionBody(session, ""))
	}
}
