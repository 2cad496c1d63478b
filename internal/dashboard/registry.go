package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/session"
)

// ManagerFactory builds the auth context for a new browser session id.
type ManagerFactory func(sid string) *session.Manager

// RedisManagers backs each browser session with its own Redis hash.
func RedisManagers(client redis.Cmdable, auth session.Authenticator, ttl time.Duration, opts ...session.Option) ManagerFactory {
	return func(sid string) *session.Manager {
		return session.NewManager(session.NewRedisStore(client, sid, ttl), auth, opts...)
	}
}

// MemoryManagers keeps sessions in process memory only; they die with the process or the idle sweep.
func MemoryManagers(auth session.Authenticator, opts ...session.Option) ManagerFactory {
	return func(string) *session.Manager {
		return session.NewManager(session.NewMemoryStore(), auth, opts...)
	}
}

type entry struct {
	manager  *session.Manager
	lastSeen time.Time
}

// Registry maps browser session ids to auth contexts.
type Registry struct {
	factory ManagerFactory
	idle    time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry. Entries unused for idle are dropped by Sweep.
func NewRegistry(factory ManagerFactory, idle time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		idle:    idle,
		logger:  logger.Named("registry"),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the manager for sid, creating an UNVERIFIED one on first use.
func (r *Registry) Get(sid string) *session.Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sid]
	if !ok {
		e = &entry{manager: r.factory(sid)}
		r.entries[sid] = e
	}
	e.lastSeen = r.now()
	return e.manager
}

// Len returns the number of live managers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops idle managers and returns how many were removed. Persisted records
// survive; the next request for the sid verifies them again.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for sid, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, sid)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("swept idle sessions", zap.Int("removed", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
