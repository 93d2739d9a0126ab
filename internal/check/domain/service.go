package domain

import (
	"context"

	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
)

type ListCheckRequest struct {
	pagination.Pagination
	Status     string `form:"status"`
	TenantID   string `form:"tenant_id"`
	Suggestion *bool  `form:"suggestion"`
}

type ListCheckResponse struct {
	pagination.PageInfo
	Checks []Check `json:"checks"`
}

type ResolveCheckRequest struct {
	ID         string `json:"-"`
	SenderName string `json:"sender_name" validate:"required,max=200"`
}

type ManualUpdateRequest struct {
	ID             string  `json:"-"`
	Status         string  `json:"status" validate:"required,oneof=Incoming Processed Approved Denied"`
	MappedTenantID *string `json:"mapped_tenant_id"`
}

// UploadCheckRequest carries a check image either as raw bytes or as a
// data URI. CheckID is the client token that makes retries idempotent.
type UploadCheckRequest struct {
	CheckID    string
	Image      []byte
	DataURI    string
	SenderName string
}

type Service interface {
	GetByID(ctx context.Context, id string) (Check, error)
	GetByCheckID(ctx context.Context, checkID string) (Check, error)
	List(ctx context.Context, req ListCheckRequest) (ListCheckResponse, error)
	// Resolve runs the resolution engine for senderName and applies the
	// proposal to an Incoming check.
	Resolve(ctx context.Context, req ResolveCheckRequest) (Check, error)
	ManualUpdate(ctx context.Context, req ManualUpdateRequest) (Check, error)
	Upload(ctx context.Context, req UploadCheckRequest) (Check, error)
}

var (
	ErrInvalidID        = apperror.Validation("invalid_id")
	ErrInvalidCheckID   = apperror.Validation("invalid_check_id")
	ErrInvalidStatus    = apperror.Validation("invalid_status")
	ErrInvalidTenantID  = apperror.Validation("invalid_mapped_tenant_id")
	ErrInvalidImage     = apperror.Validation("invalid_image")
	ErrInvalidPageToken = apperror.Validation("invalid_page_token")
	ErrNotFound         = apperror.NotFound("check_not_found")
	ErrNotIncoming      = apperror.InvalidState("check_not_incoming")
	ErrUploadInProgress = apperror.Conflict("upload_in_progress")
	ErrRateLimited      = apperror.New(apperror.KindRateLimited, "upload_rate_limited")
)
