package domain

import (
	"context"

	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
)

type CreateTenantRequest struct {
	TenantName string `json:"tenant_name" validate:"required,max=200"`
}

type UpdateTenantRequest struct {
	ID         string `json:"-"`
	TenantName string `json:"tenant_name" validate:"required,max=200"`
}

type ListTenantRequest struct {
	pagination.Pagination
	Order string `form:"order"`
}

type ListTenantResponse struct {
	pagination.PageInfo
	Tenants []Tenant `json:"tenants"`
}

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (Tenant, error)
	Update(ctx context.Context, req UpdateTenantRequest) (Tenant, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	List(ctx context.Context, req ListTenantRequest) (ListTenantResponse, error)
	ListAll(ctx context.Context) ([]Tenant, error)
}

var (
	ErrInvalidName      = apperror.Validation("invalid_tenant_name")
	ErrInvalidID        = apperror.Validation("invalid_id")
	ErrInvalidOrder     = apperror.Validation("invalid_order")
	ErrInvalidPageToken = apperror.Validation("invalid_page_token")
	ErrNotFound         = apperror.NotFound("tenant_not_found")
	ErrDuplicateName    = apperror.Conflict("tenant_name_taken")
	ErrInUse            = apperror.Conflict("tenant_in_use")
)
