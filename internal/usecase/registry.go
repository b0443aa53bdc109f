package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/metrics"
)

// scheduleFunc arms a cleanup callback after d and returns a cancel func.
// Injectable so tests can drive timers with a controllable clock.
type scheduleFunc func(d time.Duration, fn func()) (cancel func() bool)

func defaultSchedule(d time.Duration, fn func()) func() bool {
	timer := time.AfterFunc(d, fn)
	return timer.Stop
}

// registryEntry is one active job. Exactly one of cancelTranscode (while
// TRANSCODING) or cancelCleanup (once READY) is armed at a time.
type registryEntry struct {
	state           model.StreamState
	jobID           uuid.UUID
	cancelTranscode context.CancelFunc
	cancelCleanup   func() bool
}

// jobRegistry is the only shared mutable state in the scheduler: the map
// from stream key to its job entry, used for admission-control counting and
// cleanup cancellation. The filesystem, not the registry, decides whether a
// playlist is ready.
//
// All mutation goes through the mutex; cleanup timers re-enter through
// expire() and take the same lock, so they cannot race a concurrent stop or
// re-admit for the same key.
type jobRegistry struct {
	mu        sync.Mutex
	maxActive int
	entries   map[model.StreamKey]*registryEntry
	schedule  scheduleFunc
}

func newJobRegistry(maxActive int, schedule scheduleFunc) *jobRegistry {
	if schedule == nil {
		schedule = defaultSchedule
	}
	return &jobRegistry{
		maxActive: maxActive,
		entries:   make(map[model.StreamKey]*registryEntry),
		schedule:  schedule,
	}
}

// tryAdmit atomically checks capacity and inserts a TRANSCODING entry.
// Re-admitting a key that already holds a slot (stale playlist, expired
// output) replaces the old entry and cancels its timer instead of counting
// against capacity a second time.
func (r *jobRegistry) tryAdmit(key model.StreamKey, jobID uuid.UUID, cancelTranscode context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok {
		existing.disarm()
	} else if len(r.entries) >= r.maxActive {
		metrics.AdmissionRejectedTotal.Inc()
		return repository.ErrTooManyStreams
	}

	r.entries[key] = &registryEntry{
		state:           model.StateTranscoding,
		jobID:           jobID,
		cancelTranscode: cancelTranscode,
	}
	metrics.ActiveStreams.Set(float64(len(r.entries)))
	return nil
}

// markReady transitions the key's entry to READY and arms its idle-cleanup
// timer, cancelling any previously armed timer first so exactly one cleanup
// is ever pending per key.
func (r *jobRegistry) markReady(key model.StreamKey, idleTTL time.Duration, onExpire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		// Stopped while the transcode was finishing; nothing to arm.
		return
	}
	if !entry.state.CanTransitionTo(model.StateReady) {
		// Already READY with a live timer; arming a second one would leak it.
		return
	}

	entry.disarm()
	entry.state = model.StateReady
	entry.cancelCleanup = r.schedule(idleTTL, func() {
		r.expire(key, onExpire)
	})
}

// expire is the timer path: remove the entry, then run the cleanup callback
// outside the lock. A timer that fires after a concurrent stop or re-admit
// finds no READY entry and does nothing.
func (r *jobRegistry) expire(key model.StreamKey, onExpire func()) {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok || entry.state != model.StateReady {
		r.mu.Unlock()
		return
	}
	delete(r.entries, key)
	metrics.ActiveStreams.Set(float64(len(r.entries)))
	r.mu.Unlock()

	onExpire()
}

// remove deletes the key's entry, cancelling its pending cleanup and killing
// an in-flight transcode. Returns false if the key was not present.
func (r *jobRegistry) remove(key model.StreamKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return false
	}
	entry.disarm()
	delete(r.entries, key)
	metrics.ActiveStreams.Set(float64(len(r.entries)))
	return true
}

// release drops a TRANSCODING entry after a failed transcode so no registry
// entry outlives its output.
func (r *jobRegistry) release(key model.StreamKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok || entry.state != model.StateTranscoding {
		return
	}
	delete(r.entries, key)
	metrics.ActiveStreams.Set(float64(len(r.entries)))
}

// activeCount returns the number of registered jobs.
func (r *jobRegistry) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// disarm cancels whatever the entry currently owns. Caller holds the lock.
func (e *registryEntry) disarm() {
	if e.cancelCleanup != nil {
		e.cancelCleanup()
		e.cancelCleanup = nil
	}
	if e.cancelTranscode != nil {
		e.cancelTranscode()
		e.cancelTranscode = nil
	}
}
