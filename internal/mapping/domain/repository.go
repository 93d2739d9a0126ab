package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Order string

const (
	OrderBySender  Order = "sender"
	OrderByCreated Order = "created"
)

type ListFilter struct {
	TenantID *snowflake.ID
	Order    Order
	Cursor   *Cursor
	Limit    int
}

type Cursor struct {
	ID        snowflake.ID
	SenderKey string
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, mapping *Mapping) error
	Update(ctx context.Context, db *gorm.DB, mapping *Mapping) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Mapping, error)
	FindBySenderKey(ctx context.Context, db *gorm.DB, senderKey string) ([]*Mapping, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Mapping, error)
	// ListAll returns every mapping, newest first.
	ListAll(ctx context.Context, db *gorm.DB) ([]*Mapping, error)
}
