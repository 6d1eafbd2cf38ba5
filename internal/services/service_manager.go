package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gblms/roadmap-service/internal/auth"
	"github.com/gblms/roadmap-service/internal/cache"
	"github.com/gblms/roadmap-service/internal/events"
	"github.com/gblms/roadmap-service/internal/repositories"
)

// serviceManager implements ServiceManager.
type serviceManager struct {
	authService    AuthService
	roadmapService RoadmapService

	bus    *events.Bus
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
}

// NewDefaultServiceManager wires the service layer onto the configured store,
// cache and event bus.
func NewDefaultServiceManager(
	store repositories.Store,
	cacheClient *cache.Client,
	bus *events.Bus,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) ServiceManager {
	return &serviceManager{
		authService:    NewAuthService(store, tokens, logger),
		roadmapService: NewRoadmapService(store, cacheClient, bus, logger),
		bus:            bus,
		logger:         logger,
	}
}

func (m *serviceManager) Auth() AuthService       { return m.authService }
func (m *serviceManager) Roadmap() RoadmapService { return m.roadmapService }

// Initialize starts background consumers. Safe to call once.
func (m *serviceManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := m.bus.StartAuditLog(ctx); err != nil {
		return err
	}
	m.initialized = true
	m.logger.Info("service manager initialized")
	return nil
}

// Shutdown stops the event bus and with it all subscriptions.
func (m *serviceManager) Shutdown(_ context.Context) error {
	m.logger.Info("service manager shutting down")
	return m.bus.Close()
}
