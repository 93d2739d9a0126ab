package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string     `form:"action"`
	TargetType string     `form:"target_type"`
	TargetID   string     `form:"target_id"`
	Actor      string     `form:"actor"`
	StartAt    *time.Time `form:"start_at" time_format:"2006-01-02T15:04:05Z07:00"`
	EndAt      *time.Time `form:"end_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records operator actions. The actor, request id, client ip and
// user agent are taken from the request context.
type Service interface {
	AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = apperror.Validation("invalid_page_token")
	ErrInvalidTimeRange = apperror.Validation("invalid_time_range")
	ErrInvalidAction    = apperror.Validation("invalid_action")
)
