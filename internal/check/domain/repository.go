package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status       *Status
	TenantID     *snowflake.ID
	IsSuggestion *bool
	Cursor       *Cursor
	Limit        int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, check *Check) error
	Update(ctx context.Context, db *gorm.DB, check *Check) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Check, error)
	FindByCheckID(ctx context.Context, db *gorm.DB, checkID string) (*Check, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Check, error)
}
