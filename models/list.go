package models

import (
	"gorm.io/gorm"
)

// EmailList represents a list of contacts
type EmailList struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Statistics
	TotalCount   int `gorm:"default:0" json:"total_count"`
	ValidCount   int `gorm:"default:0" json:"valid_count"`
	InvalidCount int `gorm:"default:0" json:"invalid_count"`

	// Relations
	Contacts []ListContact `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"contacts,omitempty"`
}

// ListContact represents a single recipient inside a list
type ListContact struct {
	gorm.Model
	ListID uint `gorm:"not null;index" json:"list_id"`

	Email string `gorm:"not null;index" json:"email"`
	Name  string `json:"name"`

	// Status
	// No default tag, false must be persisted as is
	IsValid        bool `gorm:"not null" json:"is_valid"`
	IsUnsubscribed bool `gorm:"default:false" json:"is_unsubscribed"`
}
