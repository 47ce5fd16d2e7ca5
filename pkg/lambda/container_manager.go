package lambda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finance-tax-api/internal/config"
	"finance-tax-api/pkg/server"
)

// ContainerManager keeps the service container alive across warm invocations
type ContainerManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.RWMutex
	config    *config.Config

	// router is built once per container
	router    *Router
	routerFor *server.Container

	// newContainer is swapped out in tests
	newContainer func(*config.Config) (*server.Container, error)
}

var (
	globalContainerManager *ContainerManager
	containerManagerOnce   sync.Once
)

// GetContainerManager returns the global container manager instance
func GetContainerManager() *ContainerManager {
	containerManagerOnce.Do(func() {
		globalContainerManager = NewContainerManager()
	})
	return globalContainerManager
}

// NewContainerManager creates an empty container manager
func NewContainerManager() *ContainerManager {
	return &ContainerManager{newContainer: server.NewContainer}
}

// Initialize builds the container from configuration unless one already exists
func (cm *ContainerManager) Initialize(cfg *config.Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		return nil
	}

	container, err := cm.newContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}

	cm.config = cfg
	cm.container = container
	cm.lastUsed = time.Now()
	return nil
}

// GetContainer returns the service container, initializing it on a cold start
func (cm *ContainerManager) GetContainer(ctx context.Context) (*server.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cm.mu.Lock()
	if cm.container != nil {
		cm.lastUsed = time.Now()
		container := cm.container
		cm.mu.Unlock()
		return container, nil
	}
	cfg := cm.config
	cm.mu.Unlock()

	if cfg == nil {
		loaded, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cm.Initialize(cfg); err != nil {
		return nil, err
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.container, nil
}

// RouteRegistrar mounts handlers backed by the container onto a router
type RouteRegistrar func(router *Router, container *server.Container)

// GetRouter returns the container together with a router built for it. The router is
// registered on first use and rebuilt only when the container is replaced.
func (cm *ContainerManager) GetRouter(ctx context.Context, register RouteRegistrar) (*Router, *server.Container, error) {
	container, err := cm.GetContainer(ctx)
	if err != nil {
		return nil, nil, err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.router == nil || cm.routerFor != container {
		router := NewRouter()
		register(router, container)
		cm.router = router
		cm.routerFor = container
	}
	return cm.router, container, nil
}

// IsWarm reports whether a container was used within the given window
func (cm *ContainerManager) IsWarm(window time.Duration) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.container == nil {
		return false
	}
	return time.Since(cm.lastUsed) < window
}

// Cleanup releases the container so the next invocation rebuilds it
func (cm *ContainerManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		if err := cm.container.Close(); err != nil {
			return err
		}
		cm.container = nil
	}
	cm.router = nil
	cm.routerFor = nil

	return nil
}
