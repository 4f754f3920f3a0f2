// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
)

// APIResponse is the envelope of every JSON answer except the few polling
// endpoints that return flat objects.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func success(c *gin.Context, status int, data, meta interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data, Meta: meta})
}

func SuccessResponse(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data, nil)
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	success(c, http.StatusOK, data, meta)
}

// MessageResponse carries a user-facing message next to the payload.
func MessageResponse(c *gin.Context, message string, data interface{}) {
	success(c, http.StatusOK, data, gin.H{"message": message})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data, nil)
}

func CreatedResponseWithMessage(c *gin.Context, message string, data interface{}) {
	success(c, http.StatusCreated, data, gin.H{"message": message})
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	success(c, http.StatusOK, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

// failure answers with message, or with the translation of fallbackKey when
// message is empty.
func failure(c *gin.Context, status int, code, message, fallbackKey string, details interface{}) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), fallbackKey)
	}
	ErrorResponse(c, status, code, message, details)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	failure(c, http.StatusBadRequest, "BAD_REQUEST", message, i18n.KeyValidationInvalid, details)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	failure(c, http.StatusBadRequest, "VALIDATION_ERROR", "", i18n.KeyValidationFailed, errors)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	failure(c, http.StatusUnauthorized, "UNAUTHORIZED", message, i18n.KeyAuthRequired, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	failure(c, http.StatusForbidden, "FORBIDDEN", message, i18n.KeyAdminAccessDenied, nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyNotFound, "Resource")
	}
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	failure(c, http.StatusConflict, "CONFLICT", message, i18n.KeyConflict, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	failure(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, i18n.KeyInternalError, nil)
}
