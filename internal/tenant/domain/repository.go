package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Order string

const (
	OrderByName    Order = "name"
	OrderByCreated Order = "created"
)

type ListFilter struct {
	Order  Order
	Cursor *Cursor
	Limit  int
}

type Cursor struct {
	ID        snowflake.ID
	NameKey   string
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	Update(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Tenant, error)
	FindByNameKey(ctx context.Context, db *gorm.DB, nameKey string) (*Tenant, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Tenant, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]*Tenant, error)
	// CountReferences counts mappings and checks that point at the tenant.
	CountReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
