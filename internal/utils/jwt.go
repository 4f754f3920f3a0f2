// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenIssuer = "pigmarket"

// TokenUse keeps refresh tokens from being accepted as access tokens and the
// other way round.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

var ErrTokenUse = errors.New("token used for the wrong purpose")

type JWTClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	UserType string    `json:"user_type,omitempty"`
	Use      TokenUse  `json:"token_use"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("change-me")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func signToken(claims JWTClaims, ttlHours int) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   claims.UserID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func parseToken(tokenString string, use TokenUse) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token")
	}
	if claims.Use != use {
		return nil, ErrTokenUse
	}
	return claims, nil
}

// GenerateJWT issues the access token sent as "Authorization: Bearer".
func GenerateJWT(userID uuid.UUID, username, userType string, ttlHours int) (string, error) {
	return signToken(JWTClaims{
		UserID:   userID,
		Username: username,
		UserType: userType,
		Use:      TokenUseAccess,
	}, ttlHours)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	return parseToken(tokenString, TokenUseAccess)
}

// GenerateRefreshToken issues a token that only identifies the user; role and
// status are read again from the database on refresh.
func GenerateRefreshToken(userID uuid.UUID, ttlHours int) (string, error) {
	return signToken(JWTClaims{UserID: userID, Use: TokenUseRefresh}, ttlHours)
}

func ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := parseToken(tokenString, TokenUseRefresh)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}
