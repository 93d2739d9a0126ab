package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is a customer entity that checks and aliases are mapped to.
type Tenant struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantName string       `gorm:"column:tenant_name;not null" json:"tenant_name"`
	NameKey    string       `gorm:"column:name_key;not null;uniqueIndex" json:"-"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}
