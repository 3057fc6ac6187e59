// Package bulk applies one field change across many records at once, the way
// the console's "select all, suspend" flows do. Each record's outcome is
// independent: the batch never aborts early, never rolls back, and reports
// partial success as the normal case.
package bulk

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/protect"
	"github.com/openroad/driveadmin/internal/schema"
)

// FailureReason classifies why one record of a batch was not updated.
type FailureReason string

const (
	ReasonProtected  FailureReason = "protected"
	ReasonNotFound   FailureReason = "not_found"
	ReasonConflict   FailureReason = "conflict"
	ReasonStoreError FailureReason = "store_error"
	ReasonCancelled  FailureReason = "cancelled"
)

// Request is one bulk field update over a set of record ids.
type Request struct {
	Entity schema.EntityType `json:"entity"`
	IDs    []int64           `json:"ids"`
	Field  string            `json:"field"`
	Value  any               `json:"value"`
}

// Failure reports one record that was not updated, with the reason.
type Failure struct {
	ID     int64         `json:"id"`
	Reason FailureReason `json:"reason"`
}

// Result aggregates per-record outcomes. len(Succeeded) + len(Failed) always
// equals the number of distinct ids in the request.
type Result struct {
	Succeeded []int64   `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Coordinator fans a bulk update out over a bounded worker pool. Work for
// distinct ids runs concurrently; the fetch-check-apply sequence for each
// individual record stays sequential inside one worker, preserving the
// store's compare-and-swap discipline.
type Coordinator struct {
	repo    *records.Repository
	policy  *protect.Policy
	workers int
}

// NewCoordinator creates a bulk coordinator running at most workers
// concurrent record updates.
func NewCoordinator(repo *records.Repository, policy *protect.Policy, workers int) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{repo: repo, policy: policy, workers: workers}
}

// BulkUpdate applies request.Field = request.Value to every id in the
// request. Cancelling ctx stops scheduling new per-record work; records
// already updated stay updated and unscheduled ids are reported as cancelled
// failures, so accounting stays complete.
func (c *Coordinator) BulkUpdate(ctx context.Context, req Request) (*Result, error) {
	s, ok := c.repo.Registry().Get(req.Entity)
	if !ok {
		return nil, records.ErrUnknownEntity
	}
	if req.Field == "" {
		return nil, &records.ValidationError{Reason: "no field supplied"}
	}
	if !s.IsEditable(req.Field) {
		return nil, &records.ValidationError{Field: req.Field, Reason: "not editable for " + string(req.Entity)}
	}

	ids := dedupe(req.IDs)
	result := &Result{Succeeded: []int64{}, Failed: []Failure{}}
	if len(ids) == 0 {
		return result, nil
	}

	jobs := make(chan int64)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				outcome := c.applyOne(req.Entity, id, req.Field, req.Value)
				mu.Lock()
				if outcome == "" {
					result.Succeeded = append(result.Succeeded, id)
				} else {
					result.Failed = append(result.Failed, Failure{ID: id, Reason: outcome})
				}
				mu.Unlock()
			}
		}()
	}

	scheduled := 0
dispatch:
	for _, id := range ids {
		select {
		case jobs <- id:
			scheduled++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	// Ids never handed to a worker are reported, not silently dropped.
	for _, id := range ids[scheduled:] {
		result.Failed = append(result.Failed, Failure{ID: id, Reason: ReasonCancelled})
	}

	sort.Slice(result.Succeeded, func(i, j int) bool { return result.Succeeded[i] < result.Succeeded[j] })
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].ID < result.Failed[j].ID })
	return result, nil
}

// applyOne runs the fetch-check-apply sequence for a single record and
// returns "" on success or the failure reason. The version token is always
// fetched fresh here, never taken from request input, so a concurrent edit
// between fetch and apply surfaces as a conflict for this id only.
func (c *Coordinator) applyOne(t schema.EntityType, id int64, field string, value any) FailureReason {
	rec, token, err := c.repo.Get(t, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return ReasonNotFound
		}
		return ReasonStoreError
	}

	if err := c.policy.CheckBulk(t, rec); err != nil {
		return ReasonProtected
	}

	_, _, err = c.repo.ConditionalUpdate(t, id, token, schema.Record{field: value})
	if err != nil {
		var conflict *records.ConflictError
		switch {
		case errors.As(err, &conflict):
			return ReasonConflict
		case errors.Is(err, records.ErrNotFound):
			return ReasonNotFound
		default:
			return ReasonStoreError
		}
	}
	return ""
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
