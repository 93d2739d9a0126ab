package domain

import (
	"context"

	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
)

type CreateMappingRequest struct {
	SenderName string `json:"sender_name" validate:"required,max=200"`
	TenantID   string `json:"tenant_id" validate:"required"`
}

type UpdateMappingRequest struct {
	ID         string `json:"-"`
	SenderName string `json:"sender_name" validate:"required,max=200"`
	TenantID   string `json:"tenant_id" validate:"required"`
}

type ListMappingRequest struct {
	pagination.Pagination
	TenantID string `form:"tenant_id"`
	Order    string `form:"order"`
}

type ListMappingResponse struct {
	pagination.PageInfo
	Mappings []Mapping `json:"mappings"`
}

type Service interface {
	Create(ctx context.Context, req CreateMappingRequest) (Mapping, error)
	Update(ctx context.Context, req UpdateMappingRequest) (Mapping, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Mapping, error)
	List(ctx context.Context, req ListMappingRequest) (ListMappingResponse, error)
	// ListAll returns every mapping, newest first.
	ListAll(ctx context.Context) ([]Mapping, error)
	// FindBySender returns the mappings whose normalized sender name equals senderName's.
	FindBySender(ctx context.Context, senderName string) ([]Mapping, error)
}

var (
	ErrInvalidSenderName = apperror.Validation("invalid_sender_name")
	ErrInvalidTenantID   = apperror.Validation("invalid_tenant_id")
	ErrInvalidID         = apperror.Validation("invalid_id")
	ErrInvalidOrder      = apperror.Validation("invalid_order")
	ErrInvalidPageToken  = apperror.Validation("invalid_page_token")
	ErrNotFound          = apperror.NotFound("mapping_not_found")
)
