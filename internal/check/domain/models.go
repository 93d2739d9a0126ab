package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusIncoming  Status = "Incoming"
	StatusProcessed Status = "Processed"
	StatusApproved  Status = "Approved"
	StatusDenied    Status = "Denied"
)

const (
	// InitialSenderName is stored until the sender on the check is known.
	InitialSenderName = "Unknown"
	ImageContentType  = "image/jpeg"
)

// Check is one scanned check awaiting or past operator review.
type Check struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	CheckID           string        `gorm:"column:check_id;not null;uniqueIndex" json:"check_id"`
	SenderName        string        `gorm:"column:sender_name;not null" json:"sender_name"`
	Status            Status        `gorm:"column:status;not null;index" json:"status"`
	MappedTenantID    *snowflake.ID `gorm:"column:mapped_tenant_id;index" json:"mapped_tenant_id"`
	IsSuggestion      bool          `gorm:"column:is_suggestion;not null" json:"is_suggestion"`
	SuggestionReason  *string       `gorm:"column:suggestion_reason" json:"suggestion_reason"`
	MappingConfidence *float64      `gorm:"column:mapping_confidence" json:"mapping_confidence"`
	ImageURL          *string       `gorm:"column:image_url" json:"image_url"`
	CreatedAt         time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null" json:"updated_at"`
}

func (Check) TableName() string {
	return "checks"
}

// ObjectKey is the blob key of the check image; it only depends on the
// record and the client token so retried uploads overwrite the same object.
func (c Check) ObjectKey() string {
	return fmt.Sprintf("checks/%s/%s.jpg", c.ID.String(), c.CheckID)
}

// PlaceholderSenderName labels an uploaded check until it is resolved.
func (c Check) PlaceholderSenderName() string {
	id := c.ID.String()
	if len(id) > 4 {
		id = id[:4]
	}
	return "Uploaded Check " + id
}
