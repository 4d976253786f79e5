package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/posko-pajak/api-go/config"
	"github.com/posko-pajak/api-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeExpiredTokens(t *testing.T) {
	db, err := config.InitDB(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	user := models.User{Name: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	now := time.Now()
	tokens := []models.RefreshToken{
		{UserID: user.ID, Token: "expired-1", ExpirationDate: now.Add(-time.Hour)},
		{UserID: user.ID, Token: "expired-2", ExpirationDate: now.Add(-time.Minute)},
		{UserID: user.ID, Token: "live", ExpirationDate: now.Add(time.Hour)},
	}
	require.NoError(t, db.Omit("User").Create(&tokens).Error)

	purged, err := PurgeExpiredTokens(context.Background(), db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	var remaining []models.RefreshToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "live", remaining[0].Token)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	_, err := Start(nil, "not a cron spec")
	assert.Error(t, err)
}

func TestStart_Stops(t *testing.T) {
	stop, err := Start(nil, "@every 1h")
	require.NoError(t, err)
	stop()
}
