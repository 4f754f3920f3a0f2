// internal/middleware/presence.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/presence"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

// TrackPresence records the authenticated user as active. It must run after
// AuthRequired.
func TrackPresence(tracker presence.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := utils.GetUserUUIDFromContext(c); ok {
			userType, _ := utils.GetUserTypeFromContext(c)
			staff := models.IsStaffType(models.UserType(userType))
			if err := tracker.Touch(c.Request.Context(), userID, staff); err != nil {
				logrus.WithError(err).WithField("user_id", userID).Warn("Failed to record presence")
			}
		}
		c.Next()
	}
}
