package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "09171234567", "09171234567", nil},
		{"formatted", "0917-123-4567", "09171234567", nil},
		{"spaces", " 0917 123 4567 ", "09171234567", nil},
		{"too short", "0917123456", "", ErrPhoneLength},
		{"too long", "091712345678", "", ErrPhoneLength},
		{"country code", "+639171234567", "", ErrPhoneLength},
		{"wrong prefix", "08171234567", "", ErrPhonePrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type signupForm struct {
	Username        string `validate:"required,username"`
	Password        string `validate:"required,password"`
	CellphoneNumber string `validate:"required,ph_mobile"`
	Breed           string `validate:"omitempty,pig_breed"`
}

func TestValidateStruct(t *testing.T) {
	valid := signupForm{Username: "juan_dc", Password: "baboy2024", CellphoneNumber: "0917-123-4567", Breed: "Large White"}
	assert.NoError(t, ValidateStruct(valid))

	invalid := signupForm{Username: "jd", Password: "12345678", CellphoneNumber: "08171234567", Breed: "Berkshire"}
	err := ValidateStruct(invalid)
	require.Error(t, err)

	errs := GetValidationErrors(err)
	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "username", byField["username"].Tag)
	assert.Equal(t, "password", byField["password"].Tag)
	assert.Equal(t, "Contact number must start with 09.", byField["cellphone_number"].Message)
	assert.Equal(t, "pig_breed", byField["breed"].Tag)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	token, err := GenerateJWT(id, "juan", "customer", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "customer", claims.UserType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	refresh, err := GenerateRefreshToken(id, 1)
	require.NoError(t, err)
	subject, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, id, subject)

	// Access and refresh tokens are not interchangeable
	_, err = ValidateRefreshToken(token)
	assert.ErrorIs(t, err, ErrTokenUse)
	_, err = ValidateJWT(refresh)
	assert.ErrorIs(t, err, ErrTokenUse)

	SetJWTSecret("other-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("proof"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashBytes([]byte("proof")))
	assert.NotEqual(t, a, HashBytes([]byte("other")))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
		{"?page=3&limit=50&sort=price&order=ASC&search=+duroc+", PaginationParams{Page: 3, Limit: 50, Sort: "price", Order: "asc", Search: "duroc"}},
		{"?page=-1&limit=500&order=sideways", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
		{"?page=abc", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestNewPaginationResult(t *testing.T) {
	result := NewPaginationResult([]int{1, 2}, 41, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 2, result.Page)
}
