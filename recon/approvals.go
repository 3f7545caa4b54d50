package recon

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bselee/Aria-sub000/model"
)

var (
	// ErrApprovalNotFound is returned for ids the registry has never seen.
	ErrApprovalNotFound = errors.New("approval not found")
	// ErrApprovalResolved is returned when acting on an id that already
	// reached a terminal state (approved, rejected, or expired).
	ErrApprovalResolved = errors.New("approval already resolved")
)

// Clock abstracts time for the registry so expiry is testable with a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// ApprovalRegistry holds reconciliation plans awaiting a human decision.
// Entries transition exactly once from pending to a terminal state and are
// then removed; a short-lived tombstone keeps the terminal status around so
// a second decision on the same id gets a meaningful failure instead of a
// bare not-found.
//
// The registry is in-memory only. A process restart loses unresolved
// approvals, acceptable because resubmission re-runs reconciliation from
// scratch, and the duplicate detector only guards fully-applied runs.
type ApprovalRegistry struct {
	mu       sync.Mutex
	entries  map[string]*model.PendingApproval
	resolved map[string]resolvedMark
	ttl      time.Duration
	clock    Clock
	stop     chan struct{}
	stopOnce sync.Once
}

type resolvedMark struct {
	status model.ApprovalStatus
	at     time.Time
}

// NewApprovalRegistry creates a registry whose entries expire after ttl.
func NewApprovalRegistry(ttl time.Duration, clock Clock) *ApprovalRegistry {
	if clock == nil {
		clock = SystemClock()
	}
	return &ApprovalRegistry{
		entries:  make(map[string]*model.PendingApproval),
		resolved: make(map[string]resolvedMark),
		ttl:      ttl,
		clock:    clock,
		stop:     make(chan struct{}),
	}
}

// Store registers a plan as pending and returns its opaque id.
func (r *ApprovalRegistry) Store(res *model.ReconciliationResult) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.entries[id] = &model.PendingApproval{
		ID:        id,
		Result:    res,
		CreatedAt: r.clock.Now(),
		Status:    model.ApprovalPending,
	}
	r.mu.Unlock()
	return id
}

// Get returns a pending approval, expiring it first if its TTL has lapsed.
func (r *ApprovalRegistry) Get(id string) (*model.PendingApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *ApprovalRegistry) getLocked(id string) (*model.PendingApproval, error) {
	if mark, ok := r.resolved[id]; ok {
		return nil, fmt.Errorf("already %s: %w", mark.status, ErrApprovalResolved)
	}
	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrApprovalNotFound
	}
	if r.clock.Now().Sub(entry.CreatedAt) > r.ttl {
		r.expireLocked(id, entry)
		return nil, fmt.Errorf("already %s: %w", model.ApprovalExpired, ErrApprovalResolved)
	}
	return entry, nil
}

// List returns pending approvals ordered oldest first, skipping any whose
// TTL has lapsed (and expiring them on the way).
func (r *ApprovalRegistry) List() []*model.PendingApproval {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	out := make([]*model.PendingApproval, 0, len(r.entries))
	for id, entry := range r.entries {
		if now.Sub(entry.CreatedAt) > r.ttl {
			r.expireLocked(id, entry)
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Resolve transitions a pending entry to a terminal state and removes it,
// returning the entry as it stood. Unknown or already-terminal ids fail
// with an explicit error value, never a panic.
func (r *ApprovalRegistry) Resolve(id string, status model.ApprovalStatus) (*model.PendingApproval, error) {
	if status != model.ApprovalApproved && status != model.ApprovalRejected {
		return nil, fmt.Errorf("invalid terminal status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.getLocked(id)
	if err != nil {
		return nil, err
	}

	entry.Status = status
	delete(r.entries, id)
	r.resolved[id] = resolvedMark{status: status, at: r.clock.Now()}
	return entry, nil
}

// Sweep expires overdue entries and purges stale tombstones. Returns the
// number of entries expired.
func (r *ApprovalRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	expired := 0
	for id, entry := range r.entries {
		if now.Sub(entry.CreatedAt) > r.ttl {
			r.expireLocked(id, entry)
			expired++
		}
	}
	for id, mark := range r.resolved {
		if now.Sub(mark.at) > r.ttl {
			delete(r.resolved, id)
		}
	}
	return expired
}

// expireLocked moves an entry to the expired terminal state. Caller holds mu.
func (r *ApprovalRegistry) expireLocked(id string, entry *model.PendingApproval) {
	entry.Status = model.ApprovalExpired
	delete(r.entries, id)
	r.resolved[id] = resolvedMark{status: model.ApprovalExpired, at: r.clock.Now()}
}

// Start runs the background expiry sweep until Close is called.
func (r *ApprovalRegistry) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the background sweep.
func (r *ApprovalRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}
