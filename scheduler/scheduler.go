package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/posko-pajak/api-go/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Start registers the housekeeping jobs and starts the cron runner. The
// caller stops it with the returned function.
func Start(db *gorm.DB, spec string) (func(), error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		purged, err := PurgeExpiredTokens(ctx, db, time.Now())
		if err != nil {
			log.WithError(err).Error("refresh token purge failed")
			return
		}
		log.WithField("purged", purged).Info("expired refresh tokens purged")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule token purge %q: %w", spec, err)
	}

	c.Start()
	log.WithField("schedule", spec).Info("scheduler started")

	return func() {
		<-c.Stop().Done()
	}, nil
}

func PurgeExpiredTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("expiration_date < ?", now).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
