package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/check/domain"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, check *domain.Check) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO checks (
			id, check_id, sender_name, status, mapped_tenant_id, is_suggestion,
			suggestion_reason, mapping_confidence, image_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		check.ID,
		check.CheckID,
		check.SenderName,
		check.Status,
		check.MappedTenantID,
		check.IsSuggestion,
		check.SuggestionReason,
		check.MappingConfidence,
		check.ImageURL,
		check.CreatedAt,
		check.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, check *domain.Check) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE checks SET
			sender_name = ?, status = ?, mapped_tenant_id = ?, is_suggestion = ?,
			suggestion_reason = ?, mapping_confidence = ?, image_url = ?, updated_at = ?
		 WHERE id = ?`,
		check.SenderName,
		check.Status,
		check.MappedTenantID,
		check.IsSuggestion,
		check.SuggestionReason,
		check.MappingConfidence,
		check.ImageURL,
		check.UpdatedAt,
		check.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Check, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Check{}).Where("id = ?", id)
	if forUpdate {
		stmt = db.ForUpdate(stmt)
	}
	var items []*domain.Check
	if err := stmt.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *repo) FindByCheckID(ctx context.Context, conn *gorm.DB, checkID string) (*domain.Check, error) {
	var items []*domain.Check
	err := conn.WithContext(ctx).
		Model(&domain.Check{}).
		Where("check_id = ?", checkID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.Check, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Check{})
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.TenantID != nil {
		stmt = stmt.Where("mapped_tenant_id = ?", *filter.TenantID)
	}
	if filter.IsSuggestion != nil {
		stmt = stmt.Where("is_suggestion = ?", *filter.IsSuggestion)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var items []*domain.Check
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
