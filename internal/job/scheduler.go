// Package job runs the background aggregation schedule.
package job

import (
	"context"

	"jobquality/internal/biz"
	"jobquality/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/wire"
	"github.com/robfig/cron/v3"
)

// ProviderSet is job providers.
var ProviderSet = wire.NewSet(NewScheduler)

var _ transport.Server = (*Scheduler)(nil)

// Scheduler drives the periodic stats aggregation as a kratos transport
// server so it shares the application lifecycle.
type Scheduler struct {
	cron  *cron.Cron
	spec  string
	stats *biz.StatsUsecase
	log   *log.Helper
}

// NewScheduler new an aggregation scheduler.
func NewScheduler(c *conf.Engine, stats *biz.StatsUsecase, logger log.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		spec:  c.CronSpec(),
		stats: stats,
		log:   log.NewHelper(logger),
	}
}

// Start registers the aggregation job and runs one pass immediately so a
// fresh deployment serves suggestions without waiting a full period.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.stats.Aggregate(context.Background()); err != nil {
			s.log.Errorf("scheduled aggregation: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.log.Infof("aggregation scheduled: %s", s.spec)
	s.cron.Start()

	go func() {
		if err := s.stats.Aggregate(context.Background()); err != nil {
			s.log.Errorf("startup aggregation: %v", err)
		}
	}()
	return nil
}

// Stop waits for a running aggregation pass to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.log.Info("aggregation scheduler stopped")
	return nil
}
