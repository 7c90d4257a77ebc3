package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/upb/mala-backoffice/internal/auth"
	"go.uber.org/zap"
)

// Registry holds the live session of every browser context, keyed by
// session ID. It is the only place sessions change: Begin, Resolve and
// Clear are the update entry points, Watch is the subscription.
//
// Entries expire ttl after their last update, matching the lifetime of the
// tokens that point at them, and are swept in the background.
type Registry struct {
	mu       sync.RWMutex
	sessions *expirable.LRU[uuid.UUID, auth.Session]
	watchers map[uuid.UUID]map[*watcher]struct{}
	logger   *zap.Logger
}

type watcher struct {
	ch chan auth.Session
}

// NewRegistry creates an empty registry whose entries live for ttl.
// A ttl of zero or less keeps entries until they are cleared.
func NewRegistry(ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl < 0 {
		ttl = 0
	}
	return &Registry{
		sessions: expirable.NewLRU[uuid.UUID, auth.Session](0, nil, ttl),
		watchers: make(map[uuid.UUID]map[*watcher]struct{}),
		logger:   logger,
	}
}

// Begin marks id as authenticating. Readers see a loading session until
// Resolve or Clear is called.
func (r *Registry) Begin(id uuid.UUID) {
	r.set(id, auth.Pending())
	r.logger.Debug("session loading", zap.String("session_id", id.String()))
}

// Resolve stores the authenticated session for id.
func (r *Registry) Resolve(id uuid.UUID, s auth.Session) {
	s.Loading = false
	if s.Permissions == nil {
		s.Permissions = auth.PermissionSet{}
	}
	r.set(id, s)
	r.logger.Debug("session resolved",
		zap.String("session_id", id.String()),
		zap.String("username", s.Username),
		zap.String("role", s.Role.String()))
}

// Clear signs id out. Watchers observe the anonymous session.
func (r *Registry) Clear(id uuid.UUID) {
	r.mu.Lock()
	r.sessions.Remove(id)
	r.notifyLocked(id, auth.Anonymous())
	r.mu.Unlock()
	r.logger.Debug("session cleared", zap.String("session_id", id.String()))
}

// Snapshot returns the current session for id. Unknown and expired IDs
// report the anonymous session and false.
func (r *Registry) Snapshot(id uuid.UUID) (auth.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions.Get(id)
	if !ok {
		return auth.Anonymous(), false
	}
	return s, true
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions.Len()
}

// Watch streams the session for id: the current value first, then every
// change until ctx is done, when the channel is closed. Slow readers only
// ever see the latest value.
func (r *Registry) Watch(ctx context.Context, id uuid.UUID) <-chan auth.Session {
	w := &watcher{ch: make(chan auth.Session, 1)}

	r.mu.Lock()
	current, ok := r.sessions.Get(id)
	if !ok {
		current = auth.Anonymous()
	}
	w.ch <- current
	if r.watchers[id] == nil {
		r.watchers[id] = make(map[*watcher]struct{})
	}
	r.watchers[id][w] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.watchers[id], w)
		if len(r.watchers[id]) == 0 {
			delete(r.watchers, id)
		}
		close(w.ch)
		r.mu.Unlock()
	}()

	return w.ch
}

func (r *Registry) set(id uuid.UUID, s auth.Session) {
	r.mu.Lock()
	r.sessions.Add(id, s)
	r.notifyLocked(id, s)
	r.mu.Unlock()
}

// notifyLocked delivers s to every watcher of id, dropping any value the
// watcher has not read yet. Callers hold r.mu.
func (r *Registry) notifyLocked(id uuid.UUID, s auth.Session) {
	for w := range r.watchers[id] {
		select {
		case <-w.ch:
		default:
		}
		w.ch <- s
	}
}
