package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/checkmapper/internal/audit"
	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	blobprovider "github.com/smallbiznis/checkmapper/internal/blobstore/provider"
	"github.com/smallbiznis/checkmapper/internal/check"
	checkdomain "github.com/smallbiznis/checkmapper/internal/check/domain"
	"github.com/smallbiznis/checkmapper/internal/clock"
	"github.com/smallbiznis/checkmapper/internal/config"
	"github.com/smallbiznis/checkmapper/internal/mapping"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/mapping/sheet"
	"github.com/smallbiznis/checkmapper/internal/observability"
	obsmiddleware "github.com/smallbiznis/checkmapper/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/checkmapper/internal/observability/metrics"
	obstracing "github.com/smallbiznis/checkmapper/internal/observability/tracing"
	"github.com/smallbiznis/checkmapper/internal/ratelimit"
	"github.com/smallbiznis/checkmapper/internal/resolution"
	resolutiondomain "github.com/smallbiznis/checkmapper/internal/resolution/domain"
	"github.com/smallbiznis/checkmapper/internal/tenant"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	tenant.Module,
	mapping.Module,
	resolution.Module,
	blobprovider.Module,
	ratelimit.Module,
	check.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Clock         clock.Clock
	AuditSvc      auditdomain.Service
	TenantSvc     tenantdomain.Service
	MappingSvc    mappingdomain.Service
	MappingSheet  *sheet.Sheet
	ResolutionSvc resolutiondomain.Service
	CheckSvc      checkdomain.Service
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	clock         clock.Clock
	auditSvc      auditdomain.Service
	tenantSvc     tenantdomain.Service
	mappingSvc    mappingdomain.Service
	mappingSheet  *sheet.Sheet
	resolutionSvc resolutiondomain.Service
	checkSvc      checkdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		clock:         p.Clock,
		auditSvc:      p.AuditSvc,
		tenantSvc:     p.TenantSvc,
		mappingSvc:    p.MappingSvc,
		mappingSheet:  p.MappingSheet,
		resolutionSvc: p.ResolutionSvc,
		checkSvc:      p.CheckSvc,
	}

	svc.registerAPIRoutes()
	svc.registerBlobRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) nowDate() string {
	return s.clock.Now().Format("20060102")
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/tenants", s.ListTenants)
	api.POST("/tenants", s.CreateTenant)
	api.GET("/tenants/:id", s.GetTenantByID)
	api.PUT("/tenants/:id", s.UpdateTenant)
	api.DELETE("/tenants/:id", s.DeleteTenant)

	api.GET("/mappings", s.ListMappings)
	api.POST("/mappings", s.CreateMapping)
	api.GET("/mappings/export", s.ExportMappings)
	api.POST("/mappings/import", s.ImportMappings)
	api.GET("/mappings/:id", s.GetMappingByID)
	api.PUT("/mappings/:id", s.UpdateMapping)
	api.DELETE("/mappings/:id", s.DeleteMapping)

	api.POST("/resolution/preview", s.PreviewResolution)

	api.GET("/checks", s.ListChecks)
	api.POST("/checks", s.UploadCheck)
	api.GET("/checks/by-check-id/:check_id", s.GetCheckByCheckID)
	api.GET("/checks/:id", s.GetCheckByID)
	api.PATCH("/checks/:id", s.UpdateCheck)
	api.POST("/checks/:id/resolve", s.ResolveCheck)

	api.GET("/audit_logs", s.ListAuditLogs)
}

// registerBlobRoutes serves check images written by the local blob store.
func (s *Server) registerBlobRoutes() {
	if s.cfg.Blob.Store != config.BlobStoreLocal {
		return
	}
	s.engine.Static("/blobs", s.cfg.Blob.LocalDir)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorPayload{
			Type:    "not_found",
			Message: "route not found",
		}})
	})
}
