package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pigmarket/pigmarket-backend/internal/presence"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestI18nMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		header   string
		expected string
	}{
		{"default", "", "", "en"},
		{"query wins", "?lang=fil", "en-US", "fil"},
		{"tagalog header", "", "tl-PH,tl;q=0.9", "fil"},
		{"filipino header", "", "fil-PH,fil;q=0.9,en;q=0.8", "fil"},
		{"unsupported", "", "ja-JP", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(I18nMiddleware())
			r.GET("/", func(c *gin.Context) {
				c.String(http.StatusOK, utils.GetLangFromContext(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Body.String())
		})
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1002"))
	assert.Equal(t, "3600", limiter.retryAfter())
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1000"))
}

func TestAuthMiddlewares(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	customer, err := utils.GenerateJWT(uuid.New(), "juan", "customer", 1)
	require.NoError(t, err)
	staff, err := utils.GenerateJWT(uuid.New(), "staff", "staff", 1)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/private", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/staff", AuthRequired(), StaffRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/optional", OptionalAuth(), func(c *gin.Context) {
		_, ok := utils.GetUserUUIDFromContext(c)
		if ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		path     string
		token    string
		expected int
	}{
		{"/private", "", http.StatusUnauthorized},
		{"/private", "garbage", http.StatusUnauthorized},
		{"/private", customer, http.StatusOK},
		{"/staff", customer, http.StatusForbidden},
		{"/staff", staff, http.StatusOK},
		{"/optional", "", http.StatusNoContent},
		{"/optional", customer, http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.expected, w.Code, "%s with token %q", tt.path, tt.token != "")
	}
}

func TestTrackPresence(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	tracker := presence.NewMemoryTracker(5 * time.Minute)
	staffID := uuid.New()
	token, err := utils.GenerateJWT(staffID, "staff", "staff", 1)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", AuthRequired(), TrackPresence(tracker), func(c *gin.Context) { c.Status(http.StatusOK) })

	online, err := tracker.AnyStaffOnline(context.Background())
	require.NoError(t, err)
	assert.False(t, online)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	online, err = tracker.AnyStaffOnline(context.Background())
	require.NoError(t, err)
	assert.True(t, online)

	status, err := tracker.Status(context.Background(), staffID)
	require.NoError(t, err)
	assert.True(t, status.Online)
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "reservations", extractResourceType("/manage/reservations/confirm/"+uuid.NewString()))
	assert.Equal(t, "toggle-payment-status", extractResourceType("/api/toggle-payment-status/x"))
	assert.Equal(t, "cart", extractResourceType("/cart/add/x"))
	assert.Equal(t, "unknown", extractResourceType("/"))
}

func TestCaptureJSONBodyRedactsSecrets(t *testing.T) {
	body := `{
		"username": "juan",
		"password": "Secret123",
		"profile": {"new_password": "Other123", "city": "Lipa"},
		"accounts": [
			{"username": "maria", "password": "Hidden1"},
			[{"refresh_token": "abc", "note": "kept"}],
			"plain"
		]
	}`
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/manage/users", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", gin.MIMEJSON)

	data := captureJSONBody(c)
	require.NotNil(t, data)
	assert.Equal(t, "juan", data["username"])
	assert.NotContains(t, data, "password")
	assert.Equal(t, map[string]interface{}{"city": "Lipa"}, data["profile"])

	accounts := data["accounts"].([]interface{})
	require.Len(t, accounts, 3)
	assert.Equal(t, map[string]interface{}{"username": "maria"}, accounts[0])
	assert.Equal(t, []interface{}{map[string]interface{}{"note": "kept"}}, accounts[1])
	assert.Equal(t, "plain", accounts[2])

	// The handler still sees the untouched body.
	raw, err := io.ReadAll(c.Request.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Hidden1")
}
