package sweeper

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/pkg/config"
	"github.com/nestfold/provisioning/pkg/metrics"
)

// Sweeper periodically flips active subscriptions whose end date has
// passed to expired. The transition is a bulk update, so a run over an
// already-swept table is a no-op.
type Sweeper struct {
	log      *zap.SugaredLogger
	subSvc   *subscription.Service
	mtr      *metrics.Metrics
	schedule string
	cron     *cron.Cron
}

func New(cfg *config.Config, log *zap.SugaredLogger, subSvc *subscription.Service, mtr *metrics.Metrics) *Sweeper {
	return &Sweeper{
		log:      log,
		subSvc:   subSvc,
		mtr:      mtr,
		schedule: cfg.Sweeper.Schedule,
	}
}

// Run performs one sweep and reports how many subscriptions expired.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	n, err := s.subSvc.ExpireLapsed(ctx)
	if err != nil {
		s.log.Errorw("subscription sweep failed", "err", err)
		return 0, err
	}
	if n > 0 {
		s.mtr.SubscriptionsExpired.Add(float64(n))
		s.log.Infow("subscription sweep finished", "expired", n)
	} else {
		s.log.Debugw("subscription sweep finished, nothing to expire")
	}
	return n, nil
}

// Start schedules the sweep; the first run fires on schedule, not at
// boot, so restarts don't stampede the database.
func (s *Sweeper) Start() error {
	if s.schedule == "" {
		s.log.Infow("subscription sweeper disabled, no schedule configured")
		return nil
	}
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.Run(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infow("subscription sweeper started", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.log.Infow("subscription sweeper stopped")
}

func registerHooks(lc fx.Lifecycle, s *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return s.Start()
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
