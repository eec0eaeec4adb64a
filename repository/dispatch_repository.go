package repository

import (
	"context"
	"errors"
	"time"

	"mailcast/models"

	"gorm.io/gorm"
)

// DispatchRepository is the gorm backed store of the dispatch worker
type DispatchRepository struct {
	DB *gorm.DB
}

func NewDispatchRepository(db *gorm.DB) *DispatchRepository {
	return &DispatchRepository{DB: db}
}

// PendingSends returns the oldest pending sends of active campaigns. Campaigns
// whose template is gone are left out so their sends cannot hold up the queue;
// they stay pending and show up as stalled in the campaign stats.
func (r *DispatchRepository) PendingSends(ctx context.Context, limit int) ([]models.PendingSend, error) {
	var sends []models.PendingSend
	err := r.DB.WithContext(ctx).
		Table("email_sends AS es").
		Select("es.*, c.template_id").
		Joins("JOIN campaigns c ON c.id = es.campaign_id AND c.deleted_at IS NULL").
		Joins("JOIN templates t ON t.id = c.template_id AND t.deleted_at IS NULL").
		Where("es.status = ? AND c.status = ?", models.SendPending, models.CampaignActive).
		Order("es.created_at ASC, es.id ASC").
		Limit(limit).
		Scan(&sends).Error
	if err != nil {
		return nil, err
	}
	return sends, nil
}

func (r *DispatchRepository) GetTemplate(ctx context.Context, id uint) (*models.Template, error) {
	var tmpl models.Template
	if err := r.DB.WithContext(ctx).First(&tmpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *DispatchRepository) GetContact(ctx context.Context, id uint) (*models.ListContact, error) {
	var contact models.ListContact
	if err := r.DB.WithContext(ctx).First(&contact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *DispatchRepository) MarkSent(ctx context.Context, sendID uint, messageID string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.EmailSend{}).
		Where("id = ? AND status = ?", sendID, models.SendPending).
		Updates(map[string]interface{}{
			"status":     models.SendSent,
			"message_id": messageID,
			"sent_at":    at,
			"attempts":   gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DispatchRepository) MarkFailed(ctx context.Context, sendID uint, reason string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.EmailSend{}).
		Where("id = ? AND status = ?", sendID, models.SendPending).
		Updates(map[string]interface{}{
			"status":        models.SendFailed,
			"error_message": reason,
			"attempts":      gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DispatchRepository) IncrementCampaignSent(ctx context.Context, campaignID uint) error {
	return r.incrementCounter(ctx, campaignID, "sent_count")
}

func (r *DispatchRepository) IncrementCampaignFailed(ctx context.Context, campaignID uint) error {
	return r.incrementCounter(ctx, campaignID, "failed_count")
}

// incrementCounter never lets sent_count + failed_count exceed total_recipients
func (r *DispatchRepository) incrementCounter(ctx context.Context, campaignID uint, column string) error {
	return r.DB.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND sent_count + failed_count < total_recipients", campaignID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// CompleteFinishedCampaigns moves every active campaign whose recipients all
// reached a terminal status to completed.
func (r *DispatchRepository) CompleteFinishedCampaigns(ctx context.Context, at time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ? AND sent_count + failed_count >= total_recipients", models.CampaignActive).
		Updates(map[string]interface{}{
			"status":       models.CampaignCompleted,
			"completed_at": at,
		})
	return res.RowsAffected, res.Error
}
