package orchestrator

import (
	"sync"

	"github.com/cloudvet/cloudvet/types"
)

// Registry maps service identifiers to scanner capabilities. Concrete
// scanners register at startup, keyed by enum; lookups never compare
// strings at scan time.
type Registry struct {
	mu       sync.RWMutex
	scanners map[types.Service]Scanner
}

// NewRegistry creates an empty scanner registry
func NewRegistry() *Registry {
	return &Registry{scanners: make(map[types.Service]Scanner)}
}

// Register adds a scanner for a service, replacing any previous one
func (r *Registry) Register(service types.Service, scanner Scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanners[service] = scanner
}

// Get returns the scanner for a service
func (r *Registry) Get(service types.Service) (Scanner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scanners[service]
	return s, ok
}

// Services returns all registered service identifiers
func (r *Registry) Services() []types.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	services := make([]types.Service, 0, len(r.scanners))
	for svc := range r.scanners {
		services = append(services, svc)
	}
	return services
}
