package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, mapping *domain.Mapping) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO internal_mappings (id, sender_name, sender_key, tenant_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		mapping.ID,
		mapping.SenderName,
		mapping.SenderKey,
		mapping.TenantID,
		mapping.CreatedAt,
		mapping.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, mapping *domain.Mapping) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE internal_mappings SET sender_name = ?, sender_key = ?, tenant_id = ?, updated_at = ?
		 WHERE id = ?`,
		mapping.SenderName,
		mapping.SenderKey,
		mapping.TenantID,
		mapping.UpdatedAt,
		mapping.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) (bool, error) {
	res := conn.WithContext(ctx).Exec(`DELETE FROM internal_mappings WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Mapping, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Mapping{}).Where("id = ?", id)
	if forUpdate {
		stmt = db.ForUpdate(stmt)
	}
	var items []*domain.Mapping
	if err := stmt.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *repo) FindBySenderKey(ctx context.Context, conn *gorm.DB, senderKey string) ([]*domain.Mapping, error) {
	var items []*domain.Mapping
	err := conn.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("sender_key = ?", senderKey).
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.Mapping, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Mapping{})
	if filter.TenantID != nil {
		stmt = stmt.Where("tenant_id = ?", *filter.TenantID)
	}

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
			stmt = stmt.Where("(sender_key > ?) OR (sender_key = ? AND id > ?)",
				filter.Cursor.SenderKey,
				filter.Cursor.SenderKey,
				filter.Cursor.ID,
			)
		}
		stmt = stmt.Order("sender_key asc, id asc")
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var items []*domain.Mapping
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListAll(ctx context.Context, conn *gorm.DB) ([]*domain.Mapping, error) {
	var items []*domain.Mapping
	err := conn.WithContext(ctx).
		Model(&domain.Mapping{}).
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
