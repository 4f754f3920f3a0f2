// internal/middleware/audit.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

// Fields never copied into the audit trail, at any depth.
var redactedFields = map[string]struct{}{
	"password":      {},
	"old_password":  {},
	"new_password":  {},
	"refresh_token": {},
}

// Path segments that only group routes and say nothing about the resource.
var routePrefixes = map[string]struct{}{
	"api":    {},
	"manage": {},
}

// AuditLogMiddleware records every state-changing request made by a signed-in
// user. Only JSON bodies are captured; uploads are logged without a body.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		body := captureJSONBody(c)
		c.Next()

		userID, ok := utils.GetUserUUIDFromContext(c)
		if !ok {
			return
		}

		entry := &models.AuditLog{
			UserID:       &userID,
			Action:       c.Request.Method + " " + c.Request.URL.Path,
			Route:        c.FullPath(),
			ResourceType: extractResourceType(c.Request.URL.Path),
			ResourceID:   extractResourceID(c.Request.URL.Path),
			StatusCode:   c.Writer.Status(),
			NewValues:    models.JSONB(body),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}

		go func() {
			if err := db.Omit(clause.Associations).Create(entry).Error; err != nil {
				logrus.WithError(err).WithField("action", entry.Action).Error("Failed to create audit log")
			}
		}()
	}
}

// captureJSONBody reads the body and puts it back for the handler.
func captureJSONBody(c *gin.Context) map[string]interface{} {
	if c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
		return nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	redact(data)
	return data
}

// redact drops secret fields at any depth, including objects held in arrays.
func redact(value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, nested := range v {
			if _, secret := redactedFields[key]; secret {
				delete(v, key)
				continue
			}
			redact(nested)
		}
	case []interface{}:
		for _, item := range v {
			redact(item)
		}
	}
}

// extractResourceType names the first meaningful path segment, so that
// /manage/reservations/confirm/:id is filed under "reservations".
func extractResourceType(path string) string {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if _, skip := routePrefixes[part]; skip || part == "" {
			continue
		}
		return part
	}
	return "unknown"
}

func extractResourceID(path string) *uuid.UUID {
	for _, part := range strings.Split(path, "/") {
		if id, err := uuid.Parse(part); err == nil {
			return &id
		}
	}
	return nil
}
