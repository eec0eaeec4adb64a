package repository

import (
	"path/filepath"
	"testing"
	"time"

	"mailcast/config"
	"mailcast/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// newTestDB opens a migrated sqlite database private to the test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "mailcast.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedTemplate(t *testing.T, db *gorm.DB) *models.Template {
	t.Helper()
	tmpl := &models.Template{Name: "Welcome", Subject: "Hi {{nome}}", TextContent: "Hello {{nome}}"}
	require.NoError(t, db.Create(tmpl).Error)
	return tmpl
}

func seedCampaign(t *testing.T, db *gorm.DB, templateID uint, status string, total int) *models.Campaign {
	t.Helper()
	campaign := &models.Campaign{
		Name:            "Launch",
		TemplateID:      templateID,
		ListID:          1,
		DailyLimit:      4000,
		Status:          status,
		TotalRecipients: total,
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

// seedSends creates n pending sends for a campaign, one minute apart starting at from
func seedSends(t *testing.T, db *gorm.DB, campaignID uint, n int, from time.Time) []models.EmailSend {
	t.Helper()
	sends := make([]models.EmailSend, 0, n)
	for i := 0; i < n; i++ {
		send := models.EmailSend{
			CampaignID: campaignID,
			Email:      "user" + string(rune('a'+i)) + "@acme.com",
			Status:     models.SendPending,
			CreatedAt:  from.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&send).Error)
		sends = append(sends, send)
	}
	return sends
}

func loadCampaign(t *testing.T, db *gorm.DB, id uint) models.Campaign {
	t.Helper()
	var campaign models.Campaign
	require.NoError(t, db.First(&campaign, id).Error)
	return campaign
}

func loadSend(t *testing.T, db *gorm.DB, id uint) models.EmailSend {
	t.Helper()
	var send models.EmailSend
	require.NoError(t, db.First(&send, id).Error)
	return send
}
