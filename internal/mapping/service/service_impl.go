package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	"github.com/smallbiznis/checkmapper/internal/clock"
	"github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	TenantRepo tenantdomain.Repository
	AuditSvc   auditdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	tenantRepo tenantdomain.Repository
	auditSvc   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("mapping.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMappingRequest) (domain.Mapping, error) {
	req.SenderName = strings.TrimSpace(req.SenderName)
	req.TenantID = strings.TrimSpace(req.TenantID)
	senderName, senderKey, tenantID, err := validate(req, req.SenderName, req.TenantID)
	if err != nil {
		return domain.Mapping{}, err
	}

	now := s.clock.Now()
	mapping := domain.Mapping{
		ID:         s.genID.Generate(),
		SenderName: senderName,
		SenderKey:  senderKey,
		TenantID:   tenantID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureTenant(ctx, tx, tenantID); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &mapping); err != nil {
			return apperror.Storage("insert mapping", err)
		}
		return nil
	})
	if err != nil {
		return domain.Mapping{}, err
	}

	s.emitAudit(ctx, "mapping.create", &mapping)
	return mapping, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateMappingRequest) (domain.Mapping, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Mapping{}, err
	}
	req.SenderName = strings.TrimSpace(req.SenderName)
	req.TenantID = strings.TrimSpace(req.TenantID)
	senderName, senderKey, tenantID, err := validate(req, req.SenderName, req.TenantID)
	if err != nil {
		return domain.Mapping{}, err
	}

	var updated domain.Mapping
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return apperror.Storage("load mapping", err)
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if err := s.ensureTenant(ctx, tx, tenantID); err != nil {
			return err
		}

		item.SenderName = senderName
		item.SenderKey = senderKey
		item.TenantID = tenantID
		item.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return apperror.Storage("update mapping", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Mapping{}, err
	}

	s.emitAudit(ctx, "mapping.update", &updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	item, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return apperror.Storage("load mapping", err)
	}
	if item == nil {
		return domain.ErrNotFound
	}

	deleted, err := s.repo.Delete(ctx, s.db, id)
	if err != nil {
		return apperror.Storage("delete mapping", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.emitAudit(ctx, "mapping.delete", item)
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Mapping, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Mapping{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return domain.Mapping{}, apperror.Storage("load mapping", err)
	}
	if item == nil {
		return domain.Mapping{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListMappingRequest) (domain.ListMappingResponse, error) {
	order, err := parseOrder(req.Order)
	if err != nil {
		return domain.ListMappingResponse{}, err
	}

	filter := domain.ListFilter{Order: order, Limit: req.Pagination.Size()}
	if raw := strings.TrimSpace(req.TenantID); raw != "" {
		tenantID, err := snowflake.ParseString(raw)
		if err != nil || tenantID == 0 {
			return domain.ListMappingResponse{}, domain.ErrInvalidTenantID
		}
		filter.TenantID = &tenantID
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		filter.Cursor, err = decodeCursor(token, order)
		if err != nil {
			return domain.ListMappingResponse{}, err
		}
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListMappingResponse{}, apperror.Storage("list mappings", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, filter.Limit, func(item *domain.Mapping) string {
		next := pagination.Cursor{ID: item.ID.String()}
		if order == domain.OrderByCreated {
			next.CreatedAt = item.CreatedAt.Format(time.RFC3339Nano)
		} else {
			next.Key = item.SenderKey
		}
		token, err := pagination.EncodeCursor(next)
		if err != nil {
			return ""
		}
		return token
	})

	return domain.ListMappingResponse{PageInfo: pageInfo, Mappings: derefAll(items)}, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Mapping, error) {
	items, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, apperror.Storage("list mappings", err)
	}
	return derefAll(items), nil
}

func (s *Service) FindBySender(ctx context.Context, senderName string) ([]domain.Mapping, error) {
	key := namekey.Normalize(senderName)
	if key == "" {
		return nil, domain.ErrInvalidSenderName
	}
	items, err := s.repo.FindBySenderKey(ctx, s.db, key)
	if err != nil {
		return nil, apperror.Storage("find mappings by sender", err)
	}
	return derefAll(items), nil
}

// validate checks a trimmed request before any write.
func validate(req any, senderName, rawTenantID string) (string, string, snowflake.ID, error) {
	if err := apperror.ValidateStruct(req); err != nil {
		return "", "", 0, err
	}

	senderKey := namekey.Normalize(senderName)
	if senderKey == "" {
		return "", "", 0, domain.ErrInvalidSenderName
	}
	tenantID, err := snowflake.ParseString(rawTenantID)
	if err != nil || tenantID == 0 {
		return "", "", 0, domain.ErrInvalidTenantID
	}
	return senderName, senderKey, tenantID, nil
}

func (s *Service) ensureTenant(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tx, tenantID, true)
	if err != nil {
		return apperror.Storage("load tenant", err)
	}
	if tenant == nil {
		return domain.ErrInvalidTenantID
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, action string, mapping *domain.Mapping) {
	if s.auditSvc == nil || mapping == nil {
		return
	}
	targetID := mapping.ID.String()
	_ = s.auditSvc.AuditLog(ctx, action, "mapping", &targetID, map[string]any{
		"sender_name": mapping.SenderName,
		"tenant_id":   mapping.TenantID.String(),
	})
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
	case "", domain.OrderBySender:
		return domain.OrderBySender, nil
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
	cursor := &domain.Cursor{ID: id, SenderKey: decoded.Key}
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

func derefAll(items []*domain.Mapping) []domain.Mapping {
	out := make([]domain.Mapping, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}
