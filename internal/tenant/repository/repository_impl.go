package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, tenant *domain.Tenant) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO tenants (id, tenant_name, name_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tenant.ID,
		tenant.TenantName,
		tenant.NameKey,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, tenant *domain.Tenant) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE tenants SET tenant_name = ?, name_key = ?, updated_at = ? WHERE id = ?`,
		tenant.TenantName,
		tenant.NameKey,
		tenant.UpdatedAt,
		tenant.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`DELETE FROM tenants WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Tenant, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id)
	if forUpdate {
		stmt = db.ForUpdate(stmt)
	}
	var items []*domain.Tenant
	if err := stmt.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *repo) FindByNameKey(ctx context.Context, conn *gorm.DB, nameKey string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := conn.WithContext(ctx).Raw(
		`SELECT id, tenant_name, name_key, created_at, updated_at
		 FROM tenants WHERE name_key = ?`,
		nameKey,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == 0 {
		return nil, nil
	}
	return &tenant, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.Tenant, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Tenant{})

	switch filter.Order {
	case domain.OrderByCreated:
		if filter.Cursor != nil {
			stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				filter.Cursor.CreatedAt,
				filter.Cursor.CreatedAt,
				filter.Cursor.ID,
			)
		}
		stmt = stmt.Order("created_at desc, id desc")
	default:
		if filter.Cursor != nil {
			stmt = stmt.Where("(name_key > ?) OR (name_key = ? AND id > ?)",
				filter.Cursor.NameKey,
				filter.Cursor.NameKey,
				filter.Cursor.ID,
			)
		}
		stmt = stmt.Order("name_key asc, id asc")
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var tenants []*domain.Tenant
	if err := stmt.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repo) ListAll(ctx context.Context, conn *gorm.DB) ([]*domain.Tenant, error) {
	var tenants []*domain.Tenant
	err := conn.WithContext(ctx).
		Model(&domain.Tenant{}).
		Order("name_key asc, id asc").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repo) CountReferences(ctx context.Context, conn *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).Raw(
		`SELECT
			(SELECT COUNT(*) FROM internal_mappings WHERE tenant_id = ?) +
			(SELECT COUNT(*) FROM checks WHERE mapped_tenant_id = ?)`,
		id,
		id,
	).Scan(&count).Error
	return count, err
}
