package models

import "time"

// QuotaDateLayout is the format of DailyQuota.Date
const QuotaDateLayout = "2006-01-02"

// DailyQuota tracks how many emails went out on one calendar day
type DailyQuota struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Date       string    `gorm:"size:10;not null;uniqueIndex" json:"date"`
	EmailsSent int       `gorm:"default:0" json:"emails_sent"`
	QuotaLimit int       `gorm:"not null" json:"quota_limit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName keeps the singular table name used by reporting queries
func (DailyQuota) TableName() string {
	return "daily_quota"
}

// Remaining is the number of emails still allowed on this day. It can be negative.
func (q *DailyQuota) Remaining() int {
	return q.QuotaLimit - q.EmailsSent
}

// QuotaDate formats t as a DailyQuota key in t's own location.
func QuotaDate(t time.Time) string {
	return t.Format(QuotaDateLayout)
}
