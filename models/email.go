package models

import (
	"time"

	"gorm.io/gorm"
)

// Send statuses
const (
	SendPending = "pending"
	SendSent    = "sent"
	SendFailed  = "failed"
)

// Template represents email templates for campaigns
type Template struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Subject     string `gorm:"not null" json:"subject"`
	HTMLContent string `gorm:"type:text" json:"html_content"`
	TextContent string `gorm:"type:text" json:"text_content"`

	// Default values for {{placeholders}}, overridden per recipient
	Variables map[string]string `gorm:"type:jsonb;serializer:json" json:"variables"`
}

// EmailSend is one recipient's delivery within a campaign. The email is copied
// from the contact at campaign start and never changes afterwards.
type EmailSend struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	CampaignID   uint       `gorm:"not null;index" json:"campaign_id"`
	ContactID    *uint      `gorm:"index" json:"contact_id"`
	Email        string     `gorm:"not null" json:"email"`
	Status       string     `gorm:"default:'pending';index" json:"status"` // pending, sent, failed
	Attempts     int        `gorm:"default:0" json:"attempts"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	MessageID    string     `json:"message_id,omitempty"`
	SentAt       *time.Time `json:"sent_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PendingSend is a pending EmailSend joined with its campaign's template
type PendingSend struct {
	EmailSend
	TemplateID uint `json:"template_id"`
}

// SendStats counts a campaign's sends per status
type SendStats struct {
	Total   int64 `json:"total"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Pending int64 `json:"pending"`
	Stalled int64 `json:"stalled"`
}
