package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys set on the gin context by the auth and i18n middleware.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextUserType = "user_type"
	ContextLang     = "lang"
)

func SetAuthContext(c *gin.Context, claims *JWTClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextUserType, claims.UserType)
}

func GetLangFromContext(c *gin.Context) string {
	if lang := c.GetString(ContextLang); lang != "" {
		return lang
	}
	return "en"
}

// GetUserUUIDFromContext returns the user authenticated by AuthRequired or
// OptionalAuth.
func GetUserUUIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func GetUserTypeFromContext(c *gin.Context) (string, bool) {
	userType := c.GetString(ContextUserType)
	return userType, userType != ""
}
