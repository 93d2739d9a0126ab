package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/checkmapper/internal/config"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	obsmetrics "github.com/smallbiznis/checkmapper/internal/observability/metrics"
	"github.com/smallbiznis/checkmapper/internal/observability/tracing"
	"github.com/smallbiznis/checkmapper/internal/resolution/domain"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	MappingSvc mappingdomain.Service
	TenantSvc  tenantdomain.Service
	Config     *config.ResolutionConfigHolder
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

// Service proposes a tenant for a sender name. It only reads the mapping
// table and the tenant directory.
type Service struct {
	log        *zap.Logger
	mappingSvc mappingdomain.Service
	tenantSvc  tenantdomain.Service
	config     *config.ResolutionConfigHolder
	metrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("resolution.service"),
		mappingSvc: p.MappingSvc,
		tenantSvc:  p.TenantSvc,
		config:     p.Config,
		metrics:    p.Metrics,
	}
}

func (s *Service) Resolve(ctx context.Context, senderName string) (domain.Proposal, error) {
	senderName = strings.TrimSpace(senderName)
	if namekey.Normalize(senderName) == "" {
		return domain.Proposal{}, domain.ErrInvalidSenderName
	}

	ctx, span := tracing.StartSpan(ctx, "resolution", "resolve")
	defer span.End()

	mappings, err := s.mappingSvc.ListAll(ctx)
	if err != nil {
		return domain.Proposal{}, err
	}
	tenants, err := s.tenantSvc.ListAll(ctx)
	if err != nil {
		return domain.Proposal{}, err
	}

	proposal := match(senderName, mappings, tenants, s.config.Get())

	span.SetAttributes(attribute.String("resolution.kind", string(proposal.Kind)))
	s.metrics.RecordResolution(ctx, string(proposal.Kind))

	fields := []zap.Field{
		zap.String("kind", string(proposal.Kind)),
		zap.Int("aliases", len(mappings)),
	}
	if proposal.TenantID != nil {
		fields = append(fields, zap.String("tenant_id", proposal.TenantID.String()))
	}
	if proposal.Confidence != nil {
		fields = append(fields, zap.Float64("confidence", *proposal.Confidence))
	}
	s.log.Debug("sender name resolved", fields...)

	return proposal, nil
}
