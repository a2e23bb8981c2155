package models

import "time"

// Mailing-list sync outcomes tracked per day. The external list stays the
// source of truth for membership; these rows only count what happened.
const (
	SyncOutcomeSubscribed   = "subscribed"
	SyncOutcomeUnsubscribed = "unsubscribed"
	SyncOutcomeSkipped      = "skipped"
	SyncOutcomeMissing      = "contact_missing"
	SyncOutcomeFailed       = "failed"
)

// SyncStat is one day/outcome counter row, flushed from the Redis counters.
type SyncStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"type:varchar(10);not null;index:ux_sync_stats_date_outcome,unique,priority:1" json:"date"`
	Outcome   string    `gorm:"type:varchar(32);not null;index:ux_sync_stats_date_outcome,unique,priority:2" json:"outcome"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DailyStats repräsentiert Statistiken für einen einzelnen Tag
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
