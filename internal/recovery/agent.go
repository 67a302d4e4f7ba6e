package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sable-health/medlock/internal/connections"
	"github.com/sable-health/medlock/internal/keycache"
)

// State of a user's key availability on this device.
type State string

const (
	// StateNoKey: no cached key and no recovery attempted yet.
	StateNoKey State = "no_key"

	// StateRecovering: a recovery pass is in flight for the user.
	StateRecovering State = "recovering"

	// StateCached: a usable key is in the local cache.
	StateCached State = "cached"

	// StateGhost: the backend has an active connection for the user but no
	// key could be recovered. The user must re-scan the exchange code. This
	// is a degraded state, not an error.
	StateGhost State = "ghost"
)

// DefaultCandidateTimeout bounds each backend call so one unreachable
// candidate cannot stall the whole pass.
const DefaultCandidateTimeout = 10 * time.Second

// Outcome describes one recovery pass.
type Outcome struct {
	State State

	// KeyID is the record the key was recovered from, when State is Cached.
	KeyID string

	// Candidates is how many usable connections were considered.
	Candidates int
}

// Agent repopulates the local key cache from the backend when a device has
// an active relationship but lost its cached key. It runs at session start
// and on explicit login; concurrent triggers for the same user coalesce into
// the pass already in flight.
type Agent struct {
	cache   *keycache.Cache
	backend connections.Backend

	// CandidateTimeout overrides DefaultCandidateTimeout when positive.
	CandidateTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

// NewAgent builds a recovery agent over the cache and backend.
func NewAgent(cache *keycache.Cache, backend connections.Backend) *Agent {
	return &Agent{
		cache:    cache,
		backend:  backend,
		inflight: make(map[string]bool),
	}
}

// Recover runs one recovery pass for userID.
//
//	cached key present        -> Cached, nothing to do
//	pass already in flight    -> Recovering, no-op
//	key fetched and cached    -> Cached
//	no usable connection      -> NoKey (nothing to recover from)
//	connections but no key    -> Ghost (hint the user to re-scan)
//
// Only infrastructure failures (cache write, listing the backend) return a
// non-nil error; an unrecoverable key is a state, not an error.
func (a *Agent) Recover(ctx context.Context, userID string) (Outcome, error) {
	if a.cache.Has(userID) {
		return Outcome{State: StateCached}, nil
	}

	a.mu.Lock()
	if a.inflight[userID] {
		a.mu.Unlock()
		return Outcome{State: StateRecovering}, nil
	}
	a.inflight[userID] = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.inflight, userID)
		a.mu.Unlock()
	}()

	return a.runPass(ctx, userID)
}

func (a *Agent) runPass(ctx context.Context, userID string) (Outcome, error) {
	timeout := a.CandidateTimeout
	if timeout <= 0 {
		timeout = DefaultCandidateTimeout
	}

	listCtx, cancel := context.WithTimeout(ctx, timeout)
	conns, err := a.backend.ListConnections(listCtx, userID)
	cancel()
	if err != nil {
		return Outcome{State: StateNoKey}, fmt.Errorf("listing connections for %s: %w", userID, err)
	}

	now := time.Now()
	var candidates []connections.Connection
	for _, conn := range conns {
		if conn.Usable(now) {
			candidates = append(candidates, conn)
		}
	}
	if len(candidates) == 0 {
		return Outcome{State: StateNoKey}, nil
	}

	// Try each candidate, stop at the first key that lands in the cache.
	// A failed fetch moves on to the next candidate rather than aborting.
	for _, conn := range candidates {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		key, err := a.backend.FetchKey(fetchCtx, conn.KeyID, userID)
		cancel()
		if err != nil {
			continue
		}

		if err := a.cache.Store(key, userID); err != nil {
			return Outcome{State: StateGhost, Candidates: len(candidates)},
				fmt.Errorf("caching recovered key: %w", err)
		}
		return Outcome{State: StateCached, KeyID: conn.KeyID, Candidates: len(candidates)}, nil
	}

	return Outcome{State: StateGhost, Candidates: len(candidates)}, nil
}
