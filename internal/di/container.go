package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/koderius/ScaleSense-sub000/internal/platform/config"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
	"github.com/koderius/ScaleSense-sub000/internal/services"
)

// Services bundles the service-layer contracts that handlers and workers rely
// upon. Concrete implementations are assembled in NewContainer.
type Services struct {
	Orders     services.OrderService
	Compliance services.ComplianceService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerDeps carries optional collaborators that NewContainer cannot build itself.
type ContainerDeps struct {
	Events services.OrderEventPublisher
	Logger *zap.Logger
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry; tests can supply stub registries.
func NewContainer(cfg config.Config, reg repositories.Registry, deps ContainerDeps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases repository clients and any held resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, deps ContainerDeps) (Services, error) {
	var svc Services

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	eventLogger := zapEventLogger(logger)

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:        reg.Orders(),
		Actors:        reg.Actors(),
		Roster:        reg.Roster(),
		Notifications: reg.Notifications(),
		UnitOfWork:    reg,
		Clock:         time.Now,
		Events:        deps.Events,
		Logger:        eventLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	complianceSvc, err := services.NewComplianceService(services.ComplianceServiceDeps{
		Orders:        reg.Orders(),
		Notifications: reg.Notifications(),
		UnitOfWork:    reg,
		Events:        deps.Events,
		Logger:        eventLogger,
		StaleAfter:    cfg.Compliance.StaleAfter,
		SupplyWindow:  cfg.Compliance.SupplyWindow,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build compliance service: %w", err)
	}
	svc.Compliance = complianceSvc

	return svc, nil
}

// zapEventLogger adapts a zap logger to the service layer's event logger shape.
func zapEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zapFields = append(zapFields, zap.Any(k, v))
		}
		logger.Warn(event, zapFields...)
	}
}
