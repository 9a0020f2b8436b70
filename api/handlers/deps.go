package handlers

import (
	"github.com/arguslm/arguslm/bus"
	"github.com/arguslm/arguslm/internal/cache"
	"github.com/arguslm/arguslm/monitoring"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/store"
	"github.com/arguslm/arguslm/throttle"
	"go.uber.org/zap"
)

// Deps bundles every collaborator a resource handler needs, built once
// at startup in cmd/arguslm/deps.go and shared across all handlers —
// mirrors the teacher's pattern of a single Handler struct per resource
// holding its dependencies as fields rather than a global service
// locator.
type Deps struct {
	Store         store.Store
	Registry      *provider.Registry
	Scheduler     *monitoring.Scheduler
	Bus           *bus.Bus
	Throttle      *throttle.Manager
	Cache         *cache.Manager
	EncryptionKey []byte
	Logger        *zap.Logger
}
