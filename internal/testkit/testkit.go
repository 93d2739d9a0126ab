// Package testkit wires the services against an in-memory sqlite database
// for package tests.
package testkit

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	auditrepo "github.com/smallbiznis/checkmapper/internal/audit/repository"
	auditsvc "github.com/smallbiznis/checkmapper/internal/audit/service"
	"github.com/smallbiznis/checkmapper/internal/blobstore"
	"github.com/smallbiznis/checkmapper/internal/blobstore/memory"
	checkdomain "github.com/smallbiznis/checkmapper/internal/check/domain"
	checkrepo "github.com/smallbiznis/checkmapper/internal/check/repository"
	checksvc "github.com/smallbiznis/checkmapper/internal/check/service"
	"github.com/smallbiznis/checkmapper/internal/clock"
	"github.com/smallbiznis/checkmapper/internal/config"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	mappingrepo "github.com/smallbiznis/checkmapper/internal/mapping/repository"
	mappingsvc "github.com/smallbiznis/checkmapper/internal/mapping/service"
	"github.com/smallbiznis/checkmapper/internal/migration"
	"github.com/smallbiznis/checkmapper/internal/ratelimit"
	resolutiondomain "github.com/smallbiznis/checkmapper/internal/resolution/domain"
	resolutionsvc "github.com/smallbiznis/checkmapper/internal/resolution/service"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/checkmapper/internal/tenant/repository"
	tenantsvc "github.com/smallbiznis/checkmapper/internal/tenant/service"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var Epoch = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

type Options struct {
	Blob       blobstore.Store
	Limiter    *ratelimit.UploadLimiter
	Resolution config.ResolutionConfig
	DB         *gorm.DB
}

type App struct {
	DB         *gorm.DB
	Log        *zap.Logger
	Clock      *clock.FakeClock
	Memory     *memory.Store
	Resolution *config.ResolutionConfigHolder

	TenantRepo  tenantdomain.Repository
	MappingRepo mappingdomain.Repository
	CheckRepo   checkdomain.Repository

	Audit      auditdomain.Service
	Tenants    tenantdomain.Service
	Mappings   mappingdomain.Service
	Resolver   resolutiondomain.Service
	Checks     checkdomain.Service
	GenID      *snowflake.Node
	BlobConfig config.BlobConfig
}

func New(t *testing.T, opts Options) *App {
	t.Helper()

	conn := opts.DB
	if conn == nil {
		var err error
		conn, err = db.NewTest()
		require.NoError(t, err)
		require.NoError(t, migration.AutoMigrate(conn))
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	resolutionCfg := opts.Resolution
	if resolutionCfg == (config.ResolutionConfig{}) {
		resolutionCfg = config.DefaultResolutionConfig()
	}

	app := &App{
		DB:          conn,
		Log:         zaptest.NewLogger(t),
		Clock:       clock.NewFakeClock(Epoch),
		Memory:      memory.New("http://blobs.test"),
		Resolution:  config.NewStaticResolutionConfig(resolutionCfg),
		TenantRepo:  tenantrepo.Provide(),
		MappingRepo: mappingrepo.Provide(),
		CheckRepo:   checkrepo.Provide(),
		GenID:       node,
		BlobConfig:  config.BlobConfig{Store: config.BlobStoreMemory},
	}

	blob := opts.Blob
	if blob == nil {
		blob = app.Memory
	}

	app.Audit = auditsvc.NewService(auditsvc.Params{
		DB:    conn,
		Log:   app.Log,
		GenID: node,
		Clock: app.Clock,
		Repo:  auditrepo.Provide(),
	})
	app.Tenants = tenantsvc.New(tenantsvc.Params{
		DB:       conn,
		Log:      app.Log,
		GenID:    node,
		Clock:    app.Clock,
		Repo:     app.TenantRepo,
		AuditSvc: app.Audit,
	})
	app.Mappings = mappingsvc.New(mappingsvc.Params{
		DB:         conn,
		Log:        app.Log,
		GenID:      node,
		Clock:      app.Clock,
		Repo:       app.MappingRepo,
		TenantRepo: app.TenantRepo,
		AuditSvc:   app.Audit,
	})
	app.Resolver = resolutionsvc.New(resolutionsvc.Params{
		Log:        app.Log,
		MappingSvc: app.Mappings,
		TenantSvc:  app.Tenants,
		Config:     app.Resolution,
	})
	app.Checks = checksvc.New(checksvc.Params{
		DB:            conn,
		Log:           app.Log,
		GenID:         node,
		Clock:         app.Clock,
		Config:        config.Config{Blob: app.BlobConfig},
		Resolution:    app.Resolution,
		Repo:          app.CheckRepo,
		TenantRepo:    app.TenantRepo,
		ResolutionSvc: app.Resolver,
		Blob:          blob,
		Limiter:       opts.Limiter,
		AuditSvc:      app.Audit,
	})
	return app
}

// Tenant creates a tenant and fails the test on error.
func (a *App) Tenant(t *testing.T, name string) tenantdomain.Tenant {
	t.Helper()
	tenant, err := a.Tenants.Create(t.Context(), tenantdomain.CreateTenantRequest{TenantName: name})
	require.NoError(t, err)
	a.Clock.Advance(time.Second)
	return tenant
}

// Alias maps senderName to tenant and fails the test on error.
func (a *App) Alias(t *testing.T, senderName string, tenant tenantdomain.Tenant) mappingdomain.Mapping {
	t.Helper()
	mapping, err := a.Mappings.Create(t.Context(), mappingdomain.CreateMappingRequest{
		SenderName: senderName,
		TenantID:   tenant.ID.String(),
	})
	require.NoError(t, err)
	a.Clock.Advance(time.Second)
	return mapping
}

// Demo loads the four demo tenants and their aliases.
func (a *App) Demo(t *testing.T) map[string]tenantdomain.Tenant {
	t.Helper()
	tenants := map[string]tenantdomain.Tenant{}
	for _, name := range []string{"Stark Industries", "Wayne Enterprises", "Cyberdyne Systems", "Ollivanders Wand Shop"} {
		tenants[name] = a.Tenant(t, name)
	}
	a.Alias(t, "Tony Stark", tenants["Stark Industries"])
	a.Alias(t, "Stark Expo", tenants["Stark Industries"])
	a.Alias(t, "Bruce Wayne", tenants["Wayne Enterprises"])
	a.Alias(t, "Wayne Foundation", tenants["Wayne Enterprises"])
	a.Alias(t, "Cyberdyne", tenants["Cyberdyne Systems"])
	return tenants
}
