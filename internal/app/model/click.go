package model

import "time"

// Click is one recorded visit against a Link. Rows are append-only: created
// exactly once per successful resolution, never updated, and removed only
// when the parent link is deleted.
type Click struct {
	ID        string    `db:"id" gorm:"primaryKey;size:36" json:"id"`
	LinkID    string    `db:"link_id" gorm:"size:36;not null;index" json:"link_id"`
	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime;index" json:"created_at"`
}

// JetStream wiring for the queued click-recording mode.
const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-writer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
