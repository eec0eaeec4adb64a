package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign statuses
const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// Campaign represents a bulk email campaign sending one template to one list
type Campaign struct {
	gorm.Model

	// Campaign details
	Name       string `gorm:"not null" json:"name"`
	TemplateID uint   `gorm:"not null;index" json:"template_id"`
	ListID     uint   `gorm:"not null;index" json:"list_id"`
	DailyLimit int    `gorm:"default:4000" json:"daily_limit"`

	// Scheduling
	Status      string     `gorm:"default:'draft';index" json:"status"` // draft, active, paused, completed
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Statistics (denormalized for performance)
	TotalRecipients int `gorm:"default:0" json:"total_recipients"`
	SentCount       int `gorm:"default:0" json:"sent_count"`
	FailedCount     int `gorm:"default:0" json:"failed_count"`

	// Relations
	Sends []EmailSend `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
}

// Processed is the number of recipients that reached a terminal send status.
func (c *Campaign) Processed() int {
	return c.SentCount + c.FailedCount
}

// CampaignSummary is a campaign row joined with its template and list names
type CampaignSummary struct {
	Campaign
	TemplateName string `json:"template_name"`
	ListName     string `json:"list_name"`
}
