// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

// I18nMiddleware picks the response language from the "lang" query parameter
// or the Accept-Language header. English and Filipino are supported.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if lang == "" {
			lang = c.GetHeader("Accept-Language")
		}

		// Handle cases like "fil-PH,fil;q=0.9,en;q=0.8"
		first := strings.TrimSpace(strings.Split(strings.Split(lang, ",")[0], ";")[0])
		switch strings.ToLower(first) {
		case "fil", "fil-ph", "tl", "tl-ph":
			lang = "fil"
		default:
			lang = "en" // Default to English
		}

		// Set language in context
		c.Set(utils.ContextLang, lang)
		c.Next()
	}
}
