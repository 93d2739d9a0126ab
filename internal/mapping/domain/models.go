package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Mapping associates a known sender name (alias) with a tenant.
type Mapping struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SenderName string       `gorm:"column:sender_name;not null" json:"sender_name"`
	SenderKey  string       `gorm:"column:sender_key;not null;index" json:"-"`
	TenantID   snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Mapping) TableName() string {
	return "internal_mappings"
}
