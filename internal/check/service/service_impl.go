package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	"github.com/smallbiznis/checkmapper/internal/blobstore"
	"github.com/smallbiznis/checkmapper/internal/check/domain"
	"github.com/smallbiznis/checkmapper/internal/clock"
	"github.com/smallbiznis/checkmapper/internal/config"
	obsmetrics "github.com/smallbiznis/checkmapper/internal/observability/metrics"
	"github.com/smallbiznis/checkmapper/internal/ratelimit"
	resolutiondomain "github.com/smallbiznis/checkmapper/internal/resolution/domain"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        config.Config
	Resolution    *config.ResolutionConfigHolder
	Repo          domain.Repository
	TenantRepo    tenantdomain.Repository
	ResolutionSvc resolutiondomain.Service
	Blob          blobstore.Store
	Limiter       *ratelimit.UploadLimiter `optional:"true"`
	Metrics       *obsmetrics.Metrics      `optional:"true"`
	AuditSvc      auditdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	blobStoreName string
	resolution    *config.ResolutionConfigHolder
	repo          domain.Repository
	tenantRepo    tenantdomain.Repository
	resolutionSvc resolutiondomain.Service
	blob          blobstore.Store
	limiter       *ratelimit.UploadLimiter
	metrics       *obsmetrics.Metrics
	auditSvc      auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("check.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		blobStoreName: p.Config.Blob.Store,
		resolution:    p.Resolution,
		repo:          p.Repo,
		tenantRepo:    p.TenantRepo,
		resolutionSvc: p.ResolutionSvc,
		blob:          p.Blob,
		limiter:       p.Limiter,
		metrics:       p.Metrics,
		auditSvc:      p.AuditSvc,
	}
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Check, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Check{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return domain.Check{}, apperror.Storage("load check", err)
	}
	if item == nil {
		return domain.Check{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) GetByCheckID(ctx context.Context, checkID string) (domain.Check, error) {
	checkID = strings.TrimSpace(checkID)
	if checkID == "" {
		return domain.Check{}, domain.ErrInvalidCheckID
	}

	item, err := s.repo.FindByCheckID(ctx, s.db, checkID)
	if err != nil {
		return domain.Check{}, apperror.Storage("load check", err)
	}
	if item == nil {
		return domain.Check{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCheckRequest) (domain.ListCheckResponse, error) {
	filter := domain.ListFilter{
		IsSuggestion: req.Suggestion,
		Limit:        req.Pagination.Size(),
	}

	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListCheckResponse{}, err
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(req.TenantID); raw != "" {
		tenantID, err := snowflake.ParseString(raw)
		if err != nil || tenantID == 0 {
			return domain.ListCheckResponse{}, domain.ErrInvalidTenantID
		}
		filter.TenantID = &tenantID
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeCursor(token)
		if err != nil {
			return domain.ListCheckResponse{}, err
		}
		filter.Cursor = cursor
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListCheckResponse{}, apperror.Storage("list checks", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, filter.Limit, func(item *domain.Check) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	checks := make([]domain.Check, 0, len(items))
	for _, item := range items {
		if item != nil {
			checks = append(checks, *item)
		}
	}
	return domain.ListCheckResponse{PageInfo: pageInfo, Checks: checks}, nil
}

// Resolve runs the engine outside the write transaction; the engine only
// reads, and the transaction re-checks the status under the row lock.
func (s *Service) Resolve(ctx context.Context, req domain.ResolveCheckRequest) (domain.Check, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Check{}, err
	}
	req.SenderName = strings.TrimSpace(req.SenderName)
	if err := apperror.ValidateStruct(req); err != nil {
		return domain.Check{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return domain.Check{}, apperror.Storage("load check", err)
	}
	if current == nil {
		return domain.Check{}, domain.ErrNotFound
	}
	if current.Status != domain.StatusIncoming {
		return domain.Check{}, domain.ErrNotIncoming
	}

	proposal, err := s.resolutionSvc.Resolve(ctx, req.SenderName)
	if err != nil {
		return domain.Check{}, err
	}
	policy := config.DefaultResolutionConfig().UnmatchedPolicy
	if s.resolution != nil {
		policy = s.resolution.Get().UnmatchedPolicy
	}

	var updated domain.Check
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return apperror.Storage("load check", err)
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if err := item.ApplyResolution(proposal, policy, s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return apperror.Storage("update check", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Check{}, err
	}

	metadata := map[string]any{
		"sender_name":   updated.SenderName,
		"kind":          string(proposal.Kind),
		"status":        string(updated.Status),
		"is_suggestion": updated.IsSuggestion,
	}
	if updated.MappedTenantID != nil {
		metadata["tenant_id"] = updated.MappedTenantID.String()
	}
	if updated.MappingConfidence != nil {
		metadata["confidence"] = *updated.MappingConfidence
	}
	s.emitAudit(ctx, "check.resolution_applied", &updated, metadata)

	s.log.Info("resolution applied",
		zap.String("check_id", updated.CheckID),
		zap.String("kind", string(proposal.Kind)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *Service) ManualUpdate(ctx context.Context, req domain.ManualUpdateRequest) (domain.Check, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Check{}, err
	}
	req.Status = strings.TrimSpace(req.Status)
	if err := apperror.ValidateStruct(req); err != nil {
		return domain.Check{}, err
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return domain.Check{}, err
	}

	var tenantID *snowflake.ID
	if req.MappedTenantID != nil {
		if raw := strings.TrimSpace(*req.MappedTenantID); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil || parsed == 0 {
				return domain.Check{}, domain.ErrInvalidTenantID
			}
			tenantID = &parsed
		}
	}

	var (
		updated  domain.Check
		previous domain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return apperror.Storage("load check", err)
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if tenantID != nil {
			tenant, err := s.tenantRepo.FindByID(ctx, tx, *tenantID, true)
			if err != nil {
				return apperror.Storage("load tenant", err)
			}
			if tenant == nil {
				return domain.ErrInvalidTenantID
			}
		}

		previous = item.Status
		item.ManualUpdate(status, tenantID, s.clock.Now())
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return apperror.Storage("update check", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Check{}, err
	}

	s.metrics.RecordManualUpdate(ctx, string(updated.Status))

	metadata := map[string]any{
		"previous_status": string(previous),
		"status":          string(updated.Status),
	}
	if updated.MappedTenantID != nil {
		metadata["tenant_id"] = updated.MappedTenantID.String()
	}
	s.emitAudit(ctx, "check.manual_update", &updated, metadata)
	return updated, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, check *domain.Check, metadata map[string]any) {
	if s.auditSvc == nil || check == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["check_id"] = check.CheckID
	targetID := check.ID.String()
	_ = s.auditSvc.AuditLog(ctx, action, "check", &targetID, metadata)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func decodeCursor(token string) (*domain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidPageToken
	}
	createdAt, err := decoded.CreatedAtTime()
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	return &domain.Cursor{ID: id, CreatedAt: createdAt}, nil
}
