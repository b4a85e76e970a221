package session

import (
	"strings"
	"sync"
	"time"

	"pagepilot/internal/domain"
)

// ContextState is the last page snapshot a browser session reported.
type ContextState struct {
	SessionID      string
	ContextVersion int64
	URL            string
	Elements       []domain.ElementDescriptor
	LastUpdated    time.Time
}

// Registry keeps per-session page context so interpret requests that omit
// inline context can still be resolved against the page the user is looking
// at. Snapshots expire after a TTL; an expired session simply resolves
// context-free.
type Registry struct {
	mu   sync.RWMutex
	data map[string]ContextState
	ttl  time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Registry{
		data: make(map[string]ContextState),
		ttl:  ttl,
	}
}

// SetContext stores a snapshot. Once a session reports versioned snapshots,
// older or unversioned ones no longer overwrite it: extension updates can
// arrive out of order.
func (r *Registry) SetContext(sessionID string, version int64, url string, elements []domain.ElementDescriptor) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.data[sessionID]
	if current.ContextVersion > 0 && version > 0 && version < current.ContextVersion {
		return
	}
	if current.ContextVersion > 0 && version == 0 {
		return
	}
	if version == 0 {
		version = current.ContextVersion
	}

	r.data[sessionID] = ContextState{
		SessionID:      sessionID,
		ContextVersion: version,
		URL:            url,
		Elements:       append([]domain.ElementDescriptor{}, elements...),
		LastUpdated:    time.Now(),
	}
}

// GetContext returns the stored page context, or false when the session is
// unknown or its snapshot has expired.
func (r *Registry) GetContext(sessionID string) (domain.PageContext, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.data[sessionID]
	if !ok || r.isExpired(state) {
		return domain.PageContext{}, false
	}

	elements := make([]domain.ElementDescriptor, len(state.Elements))
	copy(elements, state.Elements)
	return domain.PageContext{
		SessionID: sessionID,
		URL:       state.URL,
		Elements:  elements,
	}, true
}

func (r *Registry) isExpired(state ContextState) bool {
	if r.ttl <= 0 {
		return false
	}
	return time.Since(state.LastUpdated) > r.ttl
}
