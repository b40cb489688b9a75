package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/koderius/ScaleSense-sub000/internal/platform/observability"
	"github.com/koderius/ScaleSense-sub000/internal/services"
)

// ComplianceScanner periodically sweeps the order book for SLA violations and
// raises the one-shot alerts. One sweep runs at startup, then one per tick.
type ComplianceScanner struct {
	service  services.ComplianceService
	interval time.Duration
	clock    func() time.Time
	logger   *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewComplianceScanner constructs the background scanner.
func NewComplianceScanner(service services.ComplianceService, interval time.Duration, logger *zap.Logger) *ComplianceScanner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceScanner{
		service:  service,
		interval: interval,
		clock:    time.Now,
		logger:   logger,
	}
}

// Start launches the sweep loop. Calling Start twice restarts the loop.
func (s *ComplianceScanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(runCtx)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *ComplianceScanner) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *ComplianceScanner) loop(ctx context.Context) {
	defer s.wg.Done()

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ComplianceScanner) sweep(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, "compliance.sweep")
	defer span.End()

	report, err := s.service.Sweep(ctx, s.clock())
	if err != nil {
		s.logger.Error("compliance sweep failed", zap.Error(err))
		return
	}
	if report.StaleUnopenedAlerts == 0 && report.SupplyApproachingAlerts == 0 && report.Skipped == 0 {
		return
	}
	s.logger.Info("compliance sweep finished",
		zap.Int("staleUnopened", report.StaleUnopenedAlerts),
		zap.Int("supplyApproaching", report.SupplyApproachingAlerts),
		zap.Int("skipped", report.Skipped),
	)
}
