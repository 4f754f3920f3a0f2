// internal/handlers/presence.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pigmarket/pigmarket-backend/internal/presence"
	"github.com/pigmarket/pigmarket-backend/internal/services"
)

type PresenceHandler struct {
	tracker          presence.Tracker
	messagingService *services.MessagingService
	window           time.Duration
}

func NewPresenceHandler(tracker presence.Tracker, messagingService *services.MessagingService, window time.Duration) *PresenceHandler {
	return &PresenceHandler{
		tracker:          tracker,
		messagingService: messagingService,
		window:           window,
	}
}

// GET /api/admin-status
func (h *PresenceHandler) AdminStatus(c *gin.Context) {
	online, err := h.tracker.AnyStaffOnline(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Warn("Presence lookup failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"is_online": online,
	})
}

// GET /api/user-status/:user_id
func (h *PresenceHandler) UserStatus(c *gin.Context) {
	userID, ok := paramUUID(c, "user_id")
	if !ok {
		return
	}

	status, err := h.tracker.Status(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Presence lookup failed")
	}

	// A customer who just wrote counts as online even between requests
	if !status.Online {
		active, err := h.messagingService.CustomerRecentlyActive(userID, h.window)
		if err != nil {
			respondError(c, err)
			return
		}
		status.Online = active
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"is_online": status.Online,
		"last_seen": status.LastSeen,
	})
}
