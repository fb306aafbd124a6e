package entity

import "time"

// AuditEntry records one administrative mutation forwarded to the platform.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   int64     `gorm:"index;not null" json:"actor_id"`
	ActorName string    `gorm:"size:150" json:"actor_name"`
	Action    string    `gorm:"size:64;index;not null" json:"action"`
	Target    string    `gorm:"size:128" json:"target"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	Succeeded bool      `gorm:"not null" json:"succeeded"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DownloadRecord is one item of a batch download run.
type DownloadRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BatchID        string    `gorm:"size:36;index;not null" json:"batch_id"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	ContributionID int64     `gorm:"not null" json:"contribution_id"`
	Path           string    `gorm:"type:text" json:"path,omitempty"`
	Bytes          int64     `json:"bytes"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
