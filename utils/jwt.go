package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"boardly/config"
	"boardly/models"
)

type Claims struct {
	UserID       uint   `json:"user_id"`
	SessionID    string `json:"session_id"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// GenerateJWTToken issues an access/refresh token pair for a session
// and records the refresh token so it can be revoked later.
func GenerateJWTToken(user *models.User, userAgent, ip string) (string, string, string, error) {
	sessionID := uuid.NewString()

	accessClaims := &Claims{
		UserID:       user.ID,
		SessionID:    sessionID,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", "", "", err
	}

	refreshExpiry := time.Now().Add(RefreshTokenTTL)
	refreshClaims := &Claims{
		UserID:       user.ID,
		SessionID:    sessionID,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", "", "", err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshTokenString,
		SessionID: sessionID,
		UserAgent: userAgent,
		IPAddress: ip,
		ExpiresAt: refreshExpiry,
	}
	if err := config.DB.Create(&record).Error; err != nil {
		return "", "", "", err
	}

	return accessTokenString, refreshTokenString, sessionID, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// RefreshTokens rotates a refresh token: the presented token must be
// on record and unrevoked, and the user's token version must still
// match.
func RefreshTokens(refreshToken, userAgent, ip string) (string, string, error) {
	claims, err := ParseJWTToken(refreshToken)
	if err != nil {
		return "", "", err
	}

	var record models.RefreshToken
	if err := config.DB.Where("token = ?", refreshToken).First(&record).Error; err != nil {
		return "", "", errors.New("refresh token not recognized")
	}
	if record.RevokedAt != nil || time.Now().After(record.ExpiresAt) {
		return "", "", errors.New("refresh token expired")
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return "", "", errors.New("user not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("invalid token version")
	}

	now := time.Now()
	record.RevokedAt = &now
	if err := config.DB.Save(&record).Error; err != nil {
		return "", "", err
	}

	access, refresh, _, err := GenerateJWTToken(&user, userAgent, ip)
	return access, refresh, err
}

// RevokeSession revokes every refresh token belonging to a session
func RevokeSession(sessionID string) error {
	now := time.Now()
	return config.DB.Model(&models.RefreshToken{}).
		Where("session_id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", &now).Error
}
