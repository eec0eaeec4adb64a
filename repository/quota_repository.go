package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailcast/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository keeps one DailyQuota row per calendar day. Rows are created
// lazily with the configured limit and never deleted.
type QuotaRepository struct {
	DB           *gorm.DB
	DefaultLimit int
}

func NewQuotaRepository(db *gorm.DB, defaultLimit int) *QuotaRepository {
	return &QuotaRepository{DB: db, DefaultLimit: defaultLimit}
}

// ForDay returns the quota row of day, creating it if needed
func (r *QuotaRepository) ForDay(ctx context.Context, day time.Time) (*models.DailyQuota, error) {
	date := models.QuotaDate(day)
	db := r.DB.WithContext(ctx)

	row := models.DailyQuota{Date: date, QuotaLimit: r.DefaultLimit}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create quota row for %s: %w", date, err)
	}

	var quota models.DailyQuota
	if err := db.Where("date = ?", date).First(&quota).Error; err != nil {
		return nil, fmt.Errorf("failed to load quota row for %s: %w", date, err)
	}
	return &quota, nil
}

// Lookup returns the quota row of day without creating it. A day with no row
// yet reads as an unsaved row with nothing sent.
func (r *QuotaRepository) Lookup(ctx context.Context, day time.Time) (*models.DailyQuota, error) {
	date := models.QuotaDate(day)
	var quota models.DailyQuota
	err := r.DB.WithContext(ctx).Where("date = ?", date).First(&quota).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DailyQuota{Date: date, QuotaLimit: r.DefaultLimit}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quota row for %s: %w", date, err)
	}
	return &quota, nil
}

func (r *QuotaRepository) RemainingCapacity(ctx context.Context, day time.Time) (int, error) {
	quota, err := r.ForDay(ctx, day)
	if err != nil {
		return 0, err
	}
	return quota.Remaining(), nil
}

// RecordSent counts one delivered email against day
func (r *QuotaRepository) RecordSent(ctx context.Context, day time.Time) error {
	date := models.QuotaDate(day)

	increment := func() (int64, error) {
		res := r.DB.WithContext(ctx).Model(&models.DailyQuota{}).
			Where("date = ?", date).
			UpdateColumn("emails_sent", gorm.Expr("emails_sent + 1"))
		return res.RowsAffected, res.Error
	}

	n, err := increment()
	if err != nil {
		return fmt.Errorf("failed to record quota usage for %s: %w", date, err)
	}
	if n > 0 {
		return nil
	}

	// The day rolled over since the capacity check
	if _, err := r.ForDay(ctx, day); err != nil {
		return err
	}
	if _, err := increment(); err != nil {
		return fmt.Errorf("failed to record quota usage for %s: %w", date, err)
	}
	return nil
}

// History returns the quota rows of the last days days up to and including now
func (r *QuotaRepository) History(ctx context.Context, now time.Time, days int) ([]models.DailyQuota, error) {
	from := models.QuotaDate(now.AddDate(0, 0, -(days - 1)))
	var rows []models.DailyQuota
	err := r.DB.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, models.QuotaDate(now)).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
