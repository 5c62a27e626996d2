package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"visiondesk/config"
	"visiondesk/models"
)

func setupTokenTest(t *testing.T) *models.User {
	t.Helper()
	config.AppConfig.JWTSecret = "test-secret"

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	config.DB = db

	user := &models.User{Email: "manager@visiondesk.test", Name: "Manager", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestTokenClaims(t *testing.T) {
	user := setupTokenTest(t)

	access, refresh, err := GenerateJWTToken(user, "test-agent", "192.0.2.1")
	require.NoError(t, err)

	claims, err := ParseJWTToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)

	claims, err = ParseJWTToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.Email, claims.Email)

	var record models.RefreshToken
	require.NoError(t, config.DB.Where("token_hash = ?", HashToken(refresh)).First(&record).Error)
	assert.Equal(t, user.ID, record.UserID)
	assert.Nil(t, record.RevokedAt)
}

func TestRefreshTokenRotation(t *testing.T) {
	user := setupTokenTest(t)

	_, refresh, err := GenerateJWTToken(user, "test-agent", "192.0.2.1")
	require.NoError(t, err)

	access2, refresh2, err := RefreshTokens(refresh, "test-agent", "192.0.2.1")
	require.NoError(t, err)
	require.NotEmpty(t, access2)
	require.NotEqual(t, refresh, refresh2)

	// The old token is revoked in the same exchange
	var record models.RefreshToken
	require.NoError(t, config.DB.Where("token_hash = ?", HashToken(refresh)).First(&record).Error)
	assert.NotNil(t, record.RevokedAt)

	_, _, err = RefreshTokens(refresh, "test-agent", "192.0.2.1")
	assert.Error(t, err)
}

func TestRevokeRefreshToken(t *testing.T) {
	user := setupTokenTest(t)

	_, refresh, err := GenerateJWTToken(user, "test-agent", "192.0.2.1")
	require.NoError(t, err)

	require.NoError(t, RevokeRefreshToken(refresh))

	_, _, err = RefreshTokens(refresh, "test-agent", "192.0.2.1")
	assert.Error(t, err)
}
