package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"visiondesk/config"
	"visiondesk/models"
)

// Access tokens carry {user id, role} and live 24 hours; refresh
// tokens live 7 days and are persisted hashed so logout can revoke them.
const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWTToken issues an access/refresh token pair for the user and
// records the refresh token so it can be revoked later.
func GenerateJWTToken(user *models.User, userAgent, ip string) (string, string, error) {
	now := time.Now()

	accessClaims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", "", err
	}

	// Unique jti so two refresh tokens minted in the same second never
	// serialize to the same string (token_hash is unique).
	jti, err := randomTokenID()
	if err != nil {
		return "", "", err
	}
	refreshClaims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", "", err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken(refreshTokenString),
		UserAgent: userAgent,
		IPAddress: ip,
		ExpiresAt: now.Add(RefreshTokenTTL),
	}
	if err := config.DB.Create(&record).Error; err != nil {
		return "", "", err
	}

	return accessTokenString, refreshTokenString, nil
}

// ParseJWTToken verifies the signature and expiry of a token.
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

// RefreshTokens exchanges a valid, unrevoked refresh token for a new
// token pair. The old refresh token is revoked in the same step.
func RefreshTokens(refreshToken, userAgent, ip string) (string, string, error) {
	claims, err := ParseJWTToken(refreshToken)
	if err != nil {
		return "", "", err
	}

	var record models.RefreshToken
	if err := config.DB.Where("token_hash = ? AND revoked_at IS NULL", HashToken(refreshToken)).
		First(&record).Error; err != nil {
		return "", "", errors.New("refresh token revoked or unknown")
	}
	if time.Now().After(record.ExpiresAt) {
		return "", "", errors.New("refresh token expired")
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return "", "", errors.New("user not found")
	}

	now := time.Now()
	if err := config.DB.Model(&record).Update("revoked_at", &now).Error; err != nil {
		return "", "", err
	}

	return GenerateJWTToken(&user, userAgent, ip)
}

// RevokeRefreshToken marks a refresh token as revoked at logout.
func RevokeRefreshToken(refreshToken string) error {
	now := time.Now()
	return config.DB.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", HashToken(refreshToken)).
		Update("revoked_at", &now).Error
}

func randomTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex sha256 of a token for storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
