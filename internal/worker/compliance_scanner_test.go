package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koderius/ScaleSense-sub000/internal/services"
)

type stubComplianceService struct {
	calls atomic.Int64
	fn    func(context.Context, time.Time) (services.ComplianceSweepReport, error)
}

func (s *stubComplianceService) Sweep(ctx context.Context, now time.Time) (services.ComplianceSweepReport, error) {
	s.calls.Add(1)
	if s.fn != nil {
		return s.fn(ctx, now)
	}
	return services.ComplianceSweepReport{}, nil
}

func TestScannerSweepsImmediatelyOnStart(t *testing.T) {
	svc := &stubComplianceService{}
	scanner := NewComplianceScanner(svc, time.Hour, nil)

	scanner.Start(context.Background())
	defer scanner.Stop()

	deadline := time.After(2 * time.Second)
	for svc.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an initial sweep shortly after Start")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestScannerStopsCleanly(t *testing.T) {
	svc := &stubComplianceService{}
	scanner := NewComplianceScanner(svc, 5*time.Millisecond, nil)

	scanner.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	scanner.Stop()

	after := svc.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if svc.calls.Load() != after {
		t.Fatal("sweeps must stop after Stop returns")
	}
	if after < 2 {
		t.Fatalf("expected periodic sweeps before Stop, got %d", after)
	}
}

func TestScannerStopWithoutStart(t *testing.T) {
	scanner := NewComplianceScanner(&stubComplianceService{}, time.Minute, nil)
	scanner.Stop()
}
