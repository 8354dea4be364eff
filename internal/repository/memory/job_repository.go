// Package memory holds the process-wide job status store. Records live for
// the lifetime of the process only.
package memory

import (
	"sort"
	"sync"
	"time"

	"downloader-api/internal/entity"
)

// entry owns one job record. Its mutex is the per-key lock: writers of
// different jobs never contend on it.
type entry struct {
	mu  sync.RWMutex
	job entity.Job
}

// JobRepository maps job id to the current record.
// The index lock is held only to find or insert entries, never while a
// record is being mutated.
type JobRepository struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewJobRepository() *JobRepository {
	return &JobRepository{
		entries: make(map[string]*entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *JobRepository) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Create inserts a new record. Ids are never overwritten.
func (r *JobRepository) Create(job entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[job.ID]; exists {
		return entity.ErrDuplicateID
	}
	r.entries[job.ID] = &entry{job: job.Clone()}
	return nil
}

func (r *JobRepository) Get(id string) (entity.Job, error) {
	e, ok := r.lookup(id)
	if !ok {
		return entity.Job{}, entity.ErrNotFound
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.job.Clone(), nil
}

// Update merges patch into the record under its key lock and returns the
// resulting copy.
//
// A terminal record is never modified: the patch is dropped and ErrTerminal
// returned. An unknown id gets a fresh error record in its place and the
// caller still sees ErrNotFound.
func (r *JobRepository) Update(id string, patch entity.JobPatch) (entity.Job, error) {
	e, ok := r.lookup(id)
	if !ok {
		return r.putMissing(id), entity.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.job.Status.IsTerminal() {
		return e.job.Clone(), entity.ErrTerminal
	}
	patch.Apply(&e.job, r.now())
	return e.job.Clone(), nil
}

func (r *JobRepository) putMissing(id string) entity.Job {
	now := r.now()
	rec := entity.Job{
		ID:          id,
		Status:      entity.StatusError,
		ErrorDetail: entity.ErrNotFound.Error(),
		Progress:    entity.InitialProgress(),
		CreatedAt:   now,
		UpdatedAt:   now,
		FinishedAt:  &now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Lost a race with Create: leave the real record alone.
	if e, exists := r.entries[id]; exists {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.job.Clone()
	}
	r.entries[id] = &entry{job: rec}
	return rec.Clone()
}

// List returns copies of every record ordered by creation time.
func (r *JobRepository) List() []entity.Job {
	r.mu.RLock()
	snapshot := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		snapshot = append(snapshot, e)
	}
	r.mu.RUnlock()

	out := make([]entity.Job, 0, len(snapshot))
	for _, e := range snapshot {
		e.mu.RLock()
		out = append(out, e.job.Clone())
		e.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CountActive is the number of records that have not reached a terminal status.
func (r *JobRepository) CountActive() int {
	n := 0
	for _, j := range r.List() {
		if !j.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// DeleteFinishedBefore drops terminal records finished before cutoff and
// returns how many were removed. In-flight records are never touched.
func (r *JobRepository) DeleteFinishedBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.entries {
		e.mu.RLock()
		expired := e.job.Status.IsTerminal() && e.job.FinishedAt != nil && e.job.FinishedAt.Before(cutoff)
		e.mu.RUnlock()
		if expired {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
