package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nestfold/provisioning/internal/app/api/handlers"
	mw "github.com/nestfold/provisioning/internal/app/api/middleware"
	"github.com/nestfold/provisioning/internal/app/service/membership"
	orgsvc "github.com/nestfold/provisioning/internal/app/service/organization"
	plansvc "github.com/nestfold/provisioning/internal/app/service/plan"
	subsvc "github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/internal/app/service/sweeper"
	"github.com/nestfold/provisioning/internal/platform/directory"
	"github.com/nestfold/provisioning/internal/repository"
	cfgpkg "github.com/nestfold/provisioning/pkg/config"
	"github.com/nestfold/provisioning/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Tracing only; request logger and access log are attached per group
	// in registerRoutes.
	r.Use(mw.Trace())
	return r
}

type routeDeps struct {
	fx.In

	Log     *zap.SugaredLogger
	Cfg     *cfgpkg.Config
	Metrics *metrics.Metrics

	Dir   directory.Directory
	Orgs  repository.OrganizationRepository
	Subs  repository.SubscriptionRepository
	OrgS  *orgsvc.Service
	SubS  *subsvc.Service
	PlanS *plansvc.Service
	MemS  *membership.Service
	Sweep *sweeper.Sweeper
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	if d.Cfg.MetricsAddr != "" {
		r.Use(d.Metrics.HandlerFunc())
		d.Metrics.Serve(d.Cfg.MetricsAddr)
		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: health and the plan catalog stay reachable without a
	// valid subscription.
	pub := r.Group("/")
	pub.Use(mw.RequestLogger(d.Log), mw.AccessLog())
	handlers.RegisterHealthRoutes(pub)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLogger(d.Log), mw.AccessLog())
	handlers.RegisterPlanRoutes(apiV1, d.PlanS)

	// Tenant surface behind the subscription gate.
	gated := apiV1.Group("/")
	gated.Use(mw.SubscriptionGate(d.Cfg, d.Dir, d.Orgs, d.Subs))
	handlers.RegisterOrganizationRoutes(gated, d.OrgS, d.SubS)
	handlers.RegisterMembershipRoutes(gated, d.MemS)

	// Admin surface: sweep trigger, audit listing, catalog management.
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), d.Sweep, d.SubS, d.PlanS)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
