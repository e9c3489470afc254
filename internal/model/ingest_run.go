package model

import "time"

// IngestRun is the audit record for one completed ingestion of a seed URL.
type IngestRun struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	URL            string    `gorm:"size:1024;not null;index" json:"url"`
	MaxDepth       int       `gorm:"not null" json:"max_depth"`
	InsertedChunks int       `gorm:"not null" json:"inserted_chunks"`
	Status         string    `gorm:"size:32;not null" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	IngestStatusCompleted = "completed"
	IngestStatusFailed    = "failed"
)
