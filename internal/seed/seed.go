// Package seed loads the demo tenants, aliases and checks.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	checkdomain "github.com/smallbiznis/checkmapper/internal/check/domain"
	"github.com/smallbiznis/checkmapper/internal/clock"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tenantStark       = "Stark Industries"
	tenantWayne       = "Wayne Enterprises"
	tenantCyberdyne   = "Cyberdyne Systems"
	tenantOllivanders = "Ollivanders Wand Shop"
)

var demoTenants = []string{tenantStark, tenantWayne, tenantCyberdyne, tenantOllivanders}

var demoMappings = []struct {
	senderName string
	tenant     string
}{
	{"Tony Stark", tenantStark},
	{"Stark Expo", tenantStark},
	{"Bruce Wayne", tenantWayne},
	{"Wayne Foundation", tenantWayne},
	{"Cyberdyne", tenantCyberdyne},
}

type demoCheck struct {
	checkID      string
	senderName   string
	status       checkdomain.Status
	tenant       string
	isSuggestion bool
	reason       string
	confidence   *float64
}

func confidence(v float64) *float64 {
	return &v
}

var demoChecks = []demoCheck{
	{checkID: "CHK-001", senderName: "Pepper Potts", status: checkdomain.StatusIncoming},
	{checkID: "CHK-002", senderName: "Stark Industries", status: checkdomain.StatusProcessed, tenant: tenantStark, confidence: confidence(0.99)},
	{
		checkID:      "CHK-003",
		senderName:   "Lucius Fox",
		status:       checkdomain.StatusProcessed,
		tenant:       tenantWayne,
		isSuggestion: true,
		reason:       `Sender name "Lucius Fox" is associated with "Wayne Enterprises".`,
		confidence:   confidence(0.85),
	},
	{checkID: "CHK-004", senderName: "Garrick Ollivander", status: checkdomain.StatusApproved, tenant: tenantOllivanders, confidence: confidence(1.0)},
	{checkID: "CHK-005", senderName: "A N Other", status: checkdomain.StatusDenied},
}

var Module = fx.Module("seed",
	fx.Provide(New),
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	TenantRepo  tenantdomain.Repository
	MappingRepo mappingdomain.Repository
	CheckRepo   checkdomain.Repository
}

type Seeder struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	tenantRepo  tenantdomain.Repository
	mappingRepo mappingdomain.Repository
	checkRepo   checkdomain.Repository
}

func New(p Params) *Seeder {
	return &Seeder{
		db:          p.DB,
		log:         p.Log.Named("seed"),
		genID:       p.GenID,
		clock:       p.Clock,
		tenantRepo:  p.TenantRepo,
		mappingRepo: p.MappingRepo,
		checkRepo:   p.CheckRepo,
	}
}

// Run replaces every tenant, alias and check with the demo fixtures. Audit
// history is left alone.
func (s *Seeder) Run(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("seed database handle is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"checks", "internal_mappings", "tenants"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		tenants, err := s.seedTenants(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.seedMappings(ctx, tx, tenants); err != nil {
			return err
		}
		if err := s.seedChecks(ctx, tx, tenants); err != nil {
			return err
		}

		s.log.Info("demo data seeded",
			zap.Int("tenants", len(demoTenants)),
			zap.Int("mappings", len(demoMappings)),
			zap.Int("checks", len(demoChecks)),
		)
		return nil
	})
}

func (s *Seeder) seedTenants(ctx context.Context, tx *gorm.DB) (map[string]snowflake.ID, error) {
	ids := make(map[string]snowflake.ID, len(demoTenants))
	for _, name := range demoTenants {
		now := s.clock.Now()
		tenant := tenantdomain.Tenant{
			ID:         s.genID.Generate(),
			TenantName: name,
			NameKey:    namekey.Normalize(name),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.tenantRepo.Insert(ctx, tx, &tenant); err != nil {
			return nil, fmt.Errorf("seed tenant %q: %w", name, err)
		}
		ids[name] = tenant.ID
	}
	return ids, nil
}

func (s *Seeder) seedMappings(ctx context.Context, tx *gorm.DB, tenants map[string]snowflake.ID) error {
	for _, m := range demoMappings {
		now := s.clock.Now()
		mapping := mappingdomain.Mapping{
			ID:         s.genID.Generate(),
			SenderName: m.senderName,
			SenderKey:  namekey.Normalize(m.senderName),
			TenantID:   tenants[m.tenant],
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.mappingRepo.Insert(ctx, tx, &mapping); err != nil {
			return fmt.Errorf("seed mapping %q: %w", m.senderName, err)
		}
	}
	return nil
}

func (s *Seeder) seedChecks(ctx context.Context, tx *gorm.DB, tenants map[string]snowflake.ID) error {
	for _, c := range demoChecks {
		now := s.clock.Now()
		check := checkdomain.Check{
			ID:                s.genID.Generate(),
			CheckID:           c.checkID,
			SenderName:        c.senderName,
			Status:            c.status,
			IsSuggestion:      c.isSuggestion,
			MappingConfidence: c.confidence,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if c.tenant != "" {
			id := tenants[c.tenant]
			check.MappedTenantID = &id
		}
		if c.reason != "" {
			reason := c.reason
			check.SuggestionReason = &reason
		}
		if err := s.checkRepo.Insert(ctx, tx, &check); err != nil {
			return fmt.Errorf("seed check %s: %w", c.checkID, err)
		}
	}
	return nil
}
