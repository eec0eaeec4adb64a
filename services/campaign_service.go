package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailcast/models"
	"mailcast/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid campaign status transition")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrListNotFound      = errors.New("list not found")
	ErrInvalidStatus     = errors.New("invalid campaign status")
)

// CampaignStore is the campaign persistence used by CampaignService
type CampaignStore interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id uint) (*models.Campaign, error)
	List(ctx context.Context, status string, limit int) ([]models.CampaignSummary, error)
	TemplateExists(ctx context.Context, id uint) (bool, error)
	ListExists(ctx context.Context, id uint) (bool, error)
	CountEligibleContacts(ctx context.Context, listID uint) (int64, error)
	Start(ctx context.Context, id uint, at time.Time) (int, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	SendStats(ctx context.Context, campaign *models.Campaign) (models.SendStats, error)
}

// Trigger starts a dispatch run without waiting for it. It returns false when
// a run is already in flight; that run picks up the new work.
type Trigger interface {
	Trigger() bool
}

type CreateCampaignInput struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	TemplateID uint   `json:"template_id" validate:"required,gt=0"`
	ListID     uint   `json:"list_id" validate:"required,gt=0"`
	DailyLimit int    `json:"daily_limit" validate:"omitempty,gt=0"`
}

// CampaignDetails is a campaign with live send statistics
type CampaignDetails struct {
	models.Campaign
	Stats models.SendStats `json:"stats"`
}

type CampaignService struct {
	store   CampaignStore
	trigger Trigger
	logger  *logrus.Entry
	now     func() time.Time
}

func NewCampaignService(store CampaignStore, trigger Trigger) *CampaignService {
	return &CampaignService{
		store:   store,
		trigger: trigger,
		logger:  logrus.WithField("component", "campaign_service"),
		now:     time.Now,
	}
}

// Create stores a draft campaign. TotalRecipients is a snapshot of the list's
// eligible contacts and is taken again on Start.
func (s *CampaignService) Create(ctx context.Context, input CreateCampaignInput) (*models.Campaign, error) {
	ok, err := s.store.TemplateExists(ctx, input.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to check template: %w", err)
	}
	if !ok {
		return nil, ErrTemplateNotFound
	}

	ok, err = s.store.ListExists(ctx, input.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to check list: %w", err)
	}
	if !ok {
		return nil, ErrListNotFound
	}

	recipients, err := s.store.CountEligibleContacts(ctx, input.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}

	dailyLimit := input.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = 4000
	}

	campaign := &models.Campaign{
		Name:            input.Name,
		TemplateID:      input.TemplateID,
		ListID:          input.ListID,
		DailyLimit:      dailyLimit,
		Status:          models.CampaignDraft,
		TotalRecipients: int(recipients),
	}
	if err := s.store.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"recipients":  campaign.TotalRecipients,
	}).Info("Campaign created")
	return campaign, nil
}

// Start activates a draft campaign, creates its sends and triggers dispatch
func (s *CampaignService) Start(ctx context.Context, id uint) (*models.Campaign, error) {
	campaign, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignDraft {
		return nil, fmt.Errorf("%w: cannot start a %s campaign", ErrInvalidTransition, campaign.Status)
	}

	created, err := s.store.Start(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: campaign is no longer a draft", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to start campaign: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"campaign_id": id,
		"sends":       created,
	}).Info("Campaign started")
	s.trigger.Trigger()

	return s.find(ctx, id)
}

func (s *CampaignService) Pause(ctx context.Context, id uint) (*models.Campaign, error) {
	if err := s.transition(ctx, id, models.CampaignActive, models.CampaignPaused); err != nil {
		return nil, err
	}
	s.logger.WithField("campaign_id", id).Info("Campaign paused")
	return s.find(ctx, id)
}

func (s *CampaignService) Resume(ctx context.Context, id uint) (*models.Campaign, error) {
	if err := s.transition(ctx, id, models.CampaignPaused, models.CampaignActive); err != nil {
		return nil, err
	}
	s.logger.WithField("campaign_id", id).Info("Campaign resumed")
	s.trigger.Trigger()
	return s.find(ctx, id)
}

// Delete removes a campaign together with its sends
func (s *CampaignService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if !deleted {
		return ErrCampaignNotFound
	}
	s.logger.WithField("campaign_id", id).Info("Campaign deleted")
	return nil
}

func (s *CampaignService) Get(ctx context.Context, id uint) (*CampaignDetails, error) {
	campaign, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.SendStats(ctx, campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign stats: %w", err)
	}
	return &CampaignDetails{Campaign: *campaign, Stats: stats}, nil
}

func (s *CampaignService) List(ctx context.Context, status string) ([]models.CampaignSummary, error) {
	switch status {
	case "", models.CampaignDraft, models.CampaignActive, models.CampaignPaused, models.CampaignCompleted:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	campaigns, err := s.store.List(ctx, status, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *CampaignService) find(ctx context.Context, id uint) (*models.Campaign, error) {
	campaign, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

func (s *CampaignService) transition(ctx context.Context, id uint, from, to string) error {
	moved, err := s.store.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}
	if moved {
		return nil
	}

	campaign, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: campaign is %s, expected %s", ErrInvalidTransition, campaign.Status, from)
}
