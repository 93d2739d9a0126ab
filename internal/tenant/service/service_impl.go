package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	"github.com/smallbiznis/checkmapper/internal/clock"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	"github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("tenant.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTenantRequest) (domain.Tenant, error) {
	req.TenantName = strings.TrimSpace(req.TenantName)
	if err := apperror.ValidateStruct(req); err != nil {
		return domain.Tenant{}, err
	}
	nameKey := namekey.Normalize(req.TenantName)
	if nameKey == "" {
		return domain.Tenant{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	tenant := domain.Tenant{
		ID:         s.genID.Generate(),
		TenantName: req.TenantName,
		NameKey:    nameKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByNameKey(ctx, tx, nameKey)
		if err != nil {
			return apperror.Storage("find tenant by name", err)
		}
		if existing != nil {
			return domain.ErrDuplicateName
		}
		if err := s.repo.Insert(ctx, tx, &tenant); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateName
			}
			return apperror.Storage("insert tenant", err)
		}
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	s.emitAudit(ctx, "tenant.create", &tenant, nil)
	return tenant, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTenantRequest) (domain.Tenant, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Tenant{}, err
	}
	req.TenantName = strings.TrimSpace(req.TenantName)
	if err := apperror.ValidateStruct(req); err != nil {
		return domain.Tenant{}, err
	}
	nameKey := namekey.Normalize(req.TenantName)
	if nameKey == "" {
		return domain.Tenant{}, domain.ErrInvalidName
	}

	var (
		updated  domain.Tenant
		previous string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return apperror.Storage("load tenant", err)
		}
		if item == nil {
			return domain.ErrNotFound
		}

		existing, err := s.repo.FindByNameKey(ctx, tx, nameKey)
		if err != nil {
			return apperror.Storage("find tenant by name", err)
		}
		if existing != nil && existing.ID != item.ID {
			return domain.ErrDuplicateName
		}

		previous = item.TenantName
		item.TenantName = req.TenantName
		item.NameKey = nameKey
		item.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateName
			}
			return apperror.Storage("update tenant", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	s.emitAudit(ctx, "tenant.rename", &updated, map[string]any{"previous_name": previous})
	return updated, nil
}

// Delete removes a tenant that no mapping or check refers to.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	var deleted domain.Tenant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return apperror.Storage("load tenant", err)
		}
		if item == nil {
			return domain.ErrNotFound
		}

		refs, err := s.repo.CountReferences(ctx, tx, id)
		if err != nil {
			return apperror.Storage("count tenant references", err)
		}
		if refs > 0 {
			return domain.ErrInUse
		}

		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return apperror.Storage("delete tenant", err)
		}
		deleted = *item
		return nil
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, "tenant.delete", &deleted, nil)
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Tenant, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Tenant{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return domain.Tenant{}, apperror.Storage("load tenant", err)
	}
	if item == nil {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTenantRequest) (domain.ListTenantResponse, error) {
	order, err := parseOrder(req.Order)
	if err != nil {
		return domain.ListTenantResponse{}, err
	}

	var cursor *domain.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err = decodeCursor(token, order)
		if err != nil {
			return domain.ListTenantResponse{}, err
		}
	}

	pageSize := req.Pagination.Size()
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Order:  order,
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListTenantResponse{}, apperror.Storage("list tenants", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Tenant) string {
		next := pagination.Cursor{ID: item.ID.String()}
		if order == domain.OrderByCreated {
			next.CreatedAt = item.CreatedAt.Format(time.RFC3339Nano)
		} else {
			next.Key = item.NameKey
		}
		token, err := pagination.EncodeCursor(next)
		if err != nil {
			return ""
		}
		return token
	})

	return domain.ListTenantResponse{PageInfo: pageInfo, Tenants: derefAll(items)}, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Tenant, error) {
	items, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, apperror.Storage("list tenants", err)
	}
	return derefAll(items), nil
}

func (s *Service) emitAudit(ctx context.Context, action string, tenant *domain.Tenant, extra map[string]any) {
	if s.auditSvc == nil || tenant == nil {
		return
	}
	metadata := map[string]any{"tenant_name": tenant.TenantName}
	for key, value := range extra {
		metadata[key] = value
	}
	targetID := tenant.ID.String()
	_ = s.auditSvc.AuditLog(ctx, action, "tenant", &targetID, metadata)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseOrder(value string) (domain.Order, error) {
	switch domain.Order(strings.ToLower(strings.TrimSpace(value))) {
	case "", domain.OrderByName:
		return domain.OrderByName, nil
	case domain.OrderByCreated:
		return domain.OrderByCreated, nil
	default:
		return "", domain.ErrInvalidOrder
	}
}

func decodeCursor(token string, order domain.Order) (*domain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidPageToken
	}
	cursor := &domain.Cursor{ID: id, NameKey: decoded.Key}
	if order == domain.OrderByCreated {
		createdAt, err := decoded.CreatedAtTime()
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		cursor.CreatedAt = createdAt
	} else if decoded.Key == "" {
		return nil, domain.ErrInvalidPageToken
	}
	return cursor, nil
}

func derefAll(items []*domain.Tenant) []domain.Tenant {
	out := make([]domain.Tenant, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}
