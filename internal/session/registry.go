// Package session tracks which identities currently hold a live connection.
//
// The registry is the shared state between the connection layer and the
// telemetry simulator. It is internally synchronized; callers never see the
// underlying map. The simulator iterates over Snapshot copies only, so no
// lock is held while readings are generated and broadcast.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/errors"
	"github.com/SunsetOrange/carnivorous-garden/internal/metrics"
)

// Registry is a process-wide map from identity to session state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]domain.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]domain.Session)}
}

// Attach upserts the session for identity. Idempotent: attaching an already
// attached identity with the same flag leaves the registry unchanged. The
// identity becomes visible to the simulator on its next tick.
func (r *Registry) Attach(identity uuid.UUID, faultMode bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[identity] = domain.Session{Identity: identity, FaultMode: faultMode}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// Detach removes the session for identity. No-op if absent. In-flight ticks
// that snapshotted the identity before removal finish against the hub's
// no-op-on-empty-room guarantee.
func (r *Registry) Detach(identity uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, identity)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// SetFaultMode updates the fault-injection flag for identity. Returns a
// NotFound error if the identity has no session; toggling is user-triggered
// and non-critical, so callers log and move on.
func (r *Registry) SetFaultMode(identity uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[identity]
	if !ok {
		return errors.NotFoundError("no session for identity")
	}
	sess.FaultMode = enabled
	r.sessions[identity] = sess
	return nil
}

// Get returns the session for identity, if present.
func (r *Registry) Get(identity uuid.UUID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[identity]
	return sess, ok
}

// Snapshot returns a point-in-time copy of all sessions. The copy is safe
// to iterate without holding any lock, and may be stale by the time it is
// consumed.
func (r *Registry) Snapshot() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
