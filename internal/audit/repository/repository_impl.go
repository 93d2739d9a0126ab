package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/checkmapper/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert appends one entry. Audit rows are never updated.
func (r *repo) Insert(ctx context.Context, conn *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return conn.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	query := conn.WithContext(ctx).
		Model(&domain.AuditLog{}).
		Scopes(matchFields(filter), withinWindow(filter), afterCursor(filter.Cursor)).
		Order("created_at DESC").
		Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit + 1)
	}

	var entries []*domain.AuditLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func matchFields(filter domain.ListFilter) func(*gorm.DB) *gorm.DB {
	columns := [...]struct {
		name  string
		value string
	}{
		{"action", filter.Action},
		{"target_type", filter.TargetType},
		{"target_id", filter.TargetID},
		{"actor", filter.Actor},
	}
	return func(tx *gorm.DB) *gorm.DB {
		for _, col := range columns {
			if v := strings.TrimSpace(col.value); v != "" {
				tx = tx.Where(col.name+" = ?", v)
			}
		}
		return tx
	}
}

func withinWindow(filter domain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if filter.StartAt != nil {
			tx = tx.Where("created_at >= ?", filter.StartAt.UTC())
		}
		if filter.EndAt != nil {
			tx = tx.Where("created_at <= ?", filter.EndAt.UTC())
		}
		return tx
	}
}

// afterCursor continues a newest-first scan strictly past the cursor row.
func afterCursor(cursor *domain.AuditCursor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if cursor == nil {
			return tx
		}
		return tx.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
}
