package scanner

import (
	"context"
	"time"

	"dexflow/config"
	"dexflow/internal/cooldown"
	"dexflow/logger"
	"dexflow/models"
)

// ReportPersister stores the finished report of a cycle.
type ReportPersister interface {
	Save(ctx context.Context, report *models.ScanReport) error
}

// Scheduler runs scan cycles on a fixed cadence. Gate parameters are
// re-read from disk before every cycle so threshold changes take effect
// without a restart.
type Scheduler struct {
	controller *Controller
	cooldown   *cooldown.Cache
	cfg        config.ScannerConfig
	reports    ReportPersister

	// OnCycle is invoked after every successful cycle with the report and
	// the wall time the cycle took. May be nil.
	OnCycle func(report *models.ScanReport, elapsed time.Duration)

	params config.GateParams
	cycles int
	log    *logger.Log
}

func NewScheduler(controller *Controller, cache *cooldown.Cache, cfg config.ScannerConfig, reports ReportPersister) *Scheduler {
	return &Scheduler{
		controller: controller,
		cooldown:   cache,
		cfg:        cfg,
		reports:    reports,
		params:     config.DefaultGateParams(),
		log:        logger.GetLogger(),
	}
}

// Run loops until ctx is cancelled. A failed cycle is logged, counted and
// followed by the error backoff instead of the regular interval; it never
// terminates the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	log := s.log.WithComponent("scheduler")
	log.WithFields(logger.Fields{
		"chain":    s.cfg.Chain,
		"interval": s.cfg.Interval.String(),
	}).Info("scheduler started")

	for {
		s.reloadParams()

		start := time.Now()
		report, err := s.controller.RunCycle(ctx, s.params, start)
		elapsed := time.Since(start)

		if err != nil {
			logger.IncrementCycleFailure()
			log.WithError(err).Error("scan cycle failed")
			if stopped := s.sleep(ctx, s.cfg.ErrorBackoff); stopped {
				return ctx.Err()
			}
			continue
		}

		logger.IncrementCycle(report.Total())
		s.persist(ctx, report)
		if s.OnCycle != nil {
			s.OnCycle(report, elapsed)
		}

		s.cycles++
		if s.cfg.SweepEveryCycles > 0 && s.cycles%s.cfg.SweepEveryCycles == 0 {
			if removed := s.cooldown.Sweep(time.Now()); removed > 0 {
				log.WithField("removed", removed).Debug("expired cooldown entries swept")
			}
		}

		if stopped := s.sleep(ctx, s.cfg.Interval-elapsed); stopped {
			return ctx.Err()
		}
	}
}

// reloadParams refreshes the gate parameters from disk. A broken or invalid
// file leaves the last known good parameters in place.
func (s *Scheduler) reloadParams() {
	params, err := config.LoadGateParams(config.GateParamsPath(s.cfg.ParamsDir, s.cfg.Chain))
	if err != nil {
		s.log.WithComponent("scheduler").WithError(err).Warn("gate parameter reload failed, keeping previous values")
		return
	}
	s.params = params
}

func (s *Scheduler) persist(ctx context.Context, report *models.ScanReport) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Save(ctx, report); err != nil {
		s.log.WithComponent("scheduler").WithError(err).Warn("failed to persist scan report")
		return
	}
	logger.IncrementReportWrite()
}

// sleep waits for d or until ctx is cancelled, whichever comes first. It
// reports whether the scheduler should stop.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
