package worker

import (
	"context"
	"fmt"
	"time"

	"mailcast/models"
	"mailcast/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Store is the storage a dispatch pass reads pending sends from and records
// outcomes in. Lookups return nil, nil when the row does not exist.
type Store interface {
	PendingSends(ctx context.Context, limit int) ([]models.PendingSend, error)
	GetTemplate(ctx context.Context, id uint) (*models.Template, error)
	GetContact(ctx context.Context, id uint) (*models.ListContact, error)

	// MarkSent and MarkFailed only move pending sends and report whether the
	// row actually changed
	MarkSent(ctx context.Context, sendID uint, messageID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, sendID uint, reason string) (bool, error)

	IncrementCampaignSent(ctx context.Context, campaignID uint) error
	IncrementCampaignFailed(ctx context.Context, campaignID uint) error
	CompleteFinishedCampaigns(ctx context.Context, at time.Time) (int64, error)
}

// QuotaLedger is the authority on how many emails may still go out on a day
type QuotaLedger interface {
	RemainingCapacity(ctx context.Context, day time.Time) (int, error)
	RecordSent(ctx context.Context, day time.Time) error
}

// Sender is the message transport
type Sender interface {
	Send(ctx context.Context, msg utils.Message) (string, error)
}

// PassResult aggregates what one dispatch pass did
type PassResult struct {
	Sent         int
	Failed       int
	Skipped      int
	QuotaReached bool
	Err          error
}

// Processed is the number of sends that left pending during the pass
func (r PassResult) Processed() int {
	return r.Sent + r.Failed
}

type DispatcherConfig struct {
	BatchSize int
	// SendDelay is the minimum spacing between two transmissions
	SendDelay time.Duration
}

// Dispatcher runs single dispatch passes. It is not safe for concurrent use,
// the Coordinator guarantees one pass at a time.
type Dispatcher struct {
	store     Store
	ledger    QuotaLedger
	sender    Sender
	logger    *logrus.Entry
	batchSize int
	limiter   *rate.Limiter
	now       func() time.Time
}

func NewDispatcher(store Store, ledger QuotaLedger, sender Sender, cfg DispatcherConfig) *Dispatcher {
	limit := rate.Inf
	if cfg.SendDelay > 0 {
		limit = rate.Every(cfg.SendDelay)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	return &Dispatcher{
		store:     store,
		ledger:    ledger,
		sender:    sender,
		logger:    logrus.WithField("component", "dispatcher"),
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
	}
}

// RunOnePass sends at most min(batch size, remaining quota) pending emails of
// active campaigns, oldest first. A storage error stops the pass and is
// returned in Err together with the counts gathered so far.
func (d *Dispatcher) RunOnePass(ctx context.Context) PassResult {
	var result PassResult
	today := d.now()

	remaining, err := d.ledger.RemainingCapacity(ctx, today)
	if err != nil {
		result.Err = fmt.Errorf("failed to read daily quota: %w", err)
		return result
	}
	if remaining <= 0 {
		d.logger.WithField("date", models.QuotaDate(today)).Info("Daily quota reached")
		result.QuotaReached = true
		return result
	}

	batchSize := min(d.batchSize, remaining)
	sends, err := d.store.PendingSends(ctx, batchSize)
	if err != nil {
		result.Err = fmt.Errorf("failed to fetch pending sends: %w", err)
		return result
	}

	for _, send := range sends {
		if err := d.process(ctx, send, today, &result); err != nil {
			result.Err = err
			return result
		}
	}

	completed, err := d.store.CompleteFinishedCampaigns(ctx, d.now())
	if err != nil {
		result.Err = fmt.Errorf("failed to complete finished campaigns: %w", err)
		return result
	}
	if completed > 0 {
		d.logger.WithField("campaigns", completed).Info("Campaigns completed")
	}

	d.logger.WithFields(logrus.Fields{
		"batch":   batchSize,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Debug("Dispatch pass finished")

	return result
}

func (d *Dispatcher) process(ctx context.Context, send models.PendingSend, today time.Time, result *PassResult) error {
	log := d.logger.WithFields(logrus.Fields{
		"send_id":     send.ID,
		"campaign_id": send.CampaignID,
	})

	tmpl, err := d.store.GetTemplate(ctx, send.TemplateID)
	if err != nil {
		return fmt.Errorf("failed to load template %d: %w", send.TemplateID, err)
	}
	if tmpl == nil {
		log.WithField("template_id", send.TemplateID).Warn("Template not found, send left pending")
		result.Skipped++
		return nil
	}

	var contact *models.ListContact
	if send.ContactID != nil {
		contact, err = d.store.GetContact(ctx, *send.ContactID)
		if err != nil {
			return fmt.Errorf("failed to load contact %d: %w", *send.ContactID, err)
		}
	}

	msg := utils.ComposeMessage(send.EmailSend, tmpl, contact)

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send delay interrupted: %w", err)
	}

	messageID, sendErr := d.sender.Send(ctx, msg)
	if sendErr != nil {
		log.WithError(sendErr).Warn("Failed to send email")

		moved, err := d.store.MarkFailed(ctx, send.ID, sendErr.Error())
		if err != nil {
			return fmt.Errorf("failed to mark send %d failed: %w", send.ID, err)
		}
		if !moved {
			log.Warn("Send already left pending, outcome not recorded")
			return nil
		}
		if err := d.store.IncrementCampaignFailed(ctx, send.CampaignID); err != nil {
			return fmt.Errorf("failed to update campaign %d failed count: %w", send.CampaignID, err)
		}
		result.Failed++
		return nil
	}

	moved, err := d.store.MarkSent(ctx, send.ID, messageID, d.now())
	if err != nil {
		return fmt.Errorf("failed to mark send %d sent: %w", send.ID, err)
	}
	if moved {
		if err := d.store.IncrementCampaignSent(ctx, send.CampaignID); err != nil {
			return fmt.Errorf("failed to update campaign %d sent count: %w", send.CampaignID, err)
		}
	} else {
		log.Warn("Send already left pending, outcome not recorded")
	}

	// The message was transmitted, so it counts against the quota regardless
	if err := d.ledger.RecordSent(ctx, today); err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}
	if moved {
		result.Sent++
	}
	return nil
}
