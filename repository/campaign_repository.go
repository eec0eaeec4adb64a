package repository

import (
	"context"
	"errors"
	"time"

	"mailcast/models"

	"gorm.io/gorm"
)

// ErrStatusConflict means the campaign was not in the status a transition
// expected when the update ran.
var ErrStatusConflict = errors.New("campaign status changed concurrently")

type CampaignRepository struct {
	DB *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	return r.DB.WithContext(ctx).Create(campaign).Error
}

// GetByID returns nil, nil when the campaign does not exist
func (r *CampaignRepository) GetByID(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.DB.WithContext(ctx).First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// List returns campaigns newest first, optionally filtered by status
func (r *CampaignRepository) List(ctx context.Context, status string, limit int) ([]models.CampaignSummary, error) {
	query := r.DB.WithContext(ctx).
		Table("campaigns AS c").
		Select("c.*, t.name AS template_name, l.name AS list_name").
		Joins("LEFT JOIN templates t ON t.id = c.template_id").
		Joins("LEFT JOIN email_lists l ON l.id = c.list_id").
		Where("c.deleted_at IS NULL").
		Order("c.created_at DESC, c.id DESC")
	if status != "" {
		query = query.Where("c.status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var campaigns []models.CampaignSummary
	if err := query.Scan(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *CampaignRepository) TemplateExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Template{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *CampaignRepository) ListExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.EmailList{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CountEligibleContacts counts the valid, subscribed contacts of a list
func (r *CampaignRepository) CountEligibleContacts(ctx context.Context, listID uint) (int64, error) {
	var count int64
	err := eligibleContacts(r.DB.WithContext(ctx), listID).Count(&count).Error
	return count, err
}

func eligibleContacts(db *gorm.DB, listID uint) *gorm.DB {
	return db.Model(&models.ListContact{}).
		Where("list_id = ? AND is_valid = ? AND is_unsubscribed = ?", listID, true, false)
}

// Start activates a draft campaign and creates one pending send per eligible
// contact of its list, all in one transaction. total_recipients is reset to
// the number of sends actually created. Returns ErrStatusConflict if the
// campaign is no longer a draft.
func (r *CampaignRepository) Start(ctx context.Context, campaignID uint, at time.Time) (int, error) {
	var created int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Campaign{}).
			Where("id = ? AND status = ?", campaignID, models.CampaignDraft).
			Updates(map[string]interface{}{
				"status":     models.CampaignActive,
				"started_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}

		var campaign models.Campaign
		if err := tx.Select("id", "list_id").First(&campaign, campaignID).Error; err != nil {
			return err
		}

		insert := tx.Exec(`
			INSERT INTO email_sends (campaign_id, contact_id, email, status, attempts, created_at, updated_at)
			SELECT ?, lc.id, lc.email, ?, 0, ?, ?
			FROM list_contacts lc
			WHERE lc.list_id = ? AND lc.is_valid = TRUE AND lc.is_unsubscribed = FALSE AND lc.deleted_at IS NULL
			ORDER BY lc.id ASC`,
			campaignID, models.SendPending, at, at, campaign.ListID)
		if insert.Error != nil {
			return insert.Error
		}
		created = insert.RowsAffected

		return tx.Model(&models.Campaign{}).
			Where("id = ?", campaignID).
			UpdateColumn("total_recipients", created).Error
	})
	if err != nil {
		return 0, err
	}
	return int(created), nil
}

// UpdateStatus moves a campaign from one status to another and reports whether
// the row was in the expected status.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a campaign and all of its sends. Returns false if there was
// nothing to delete.
func (r *CampaignRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&models.EmailSend{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&models.Campaign{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// SendStats counts the sends of a campaign per status. Pending sends whose
// template no longer exists are also reported as stalled.
func (r *CampaignRepository) SendStats(ctx context.Context, campaign *models.Campaign) (models.SendStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&models.EmailSend{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaign.ID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.SendStats{}, err
	}

	var stats models.SendStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.SendSent:
			stats.Sent = row.Count
		case models.SendFailed:
			stats.Failed = row.Count
		case models.SendPending:
			stats.Pending = row.Count
		}
	}

	if stats.Pending > 0 {
		exists, err := r.TemplateExists(ctx, campaign.TemplateID)
		if err != nil {
			return models.SendStats{}, err
		}
		if !exists {
			stats.Stalled = stats.Pending
		}
	}
	return stats, nil
}

// CountByStatus returns the number of campaigns per status
func (r *CampaignRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Campaign{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.CampaignDraft:     0,
		models.CampaignActive:    0,
		models.CampaignPaused:    0,
		models.CampaignCompleted: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
