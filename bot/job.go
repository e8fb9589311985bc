package bot

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrJobCanceled = errors.New("job canceled")

// Worker admits a bounded number of concurrent batches. Cancel aborts every
// running one.
type Worker struct {
	sem     *semaphore.Weighted
	mu      sync.Mutex
	cancels map[int]context.CancelCauseFunc
	nextID  int
}

func NewWorker(maxConcurrency int) *Worker {
	return &Worker{
		sem:     semaphore.NewWeighted(int64(maxConcurrency)),
		mu:      sync.Mutex{},
		cancels: make(map[int]context.CancelCauseFunc),
		nextID:  0,
	}
}

// TryAcquireJob returns a job context and its release function, or false when
// all slots are busy.
func (w *Worker) TryAcquireJob(ctx context.Context) (context.Context, func(), bool) {
	if !w.sem.TryAcquire(1) {
		return nil, nil, false
	}

	ctx, cancel := context.WithCancelCause(ctx)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.cancels[id] = cancel
	w.mu.Unlock()

	release := func() {
		w.mu.Lock()
		delete(w.cancels, id)
		w.mu.Unlock()

		cancel(nil)
		w.sem.Release(1)
	}

	return ctx, release, true
}

// CancelJobs cancels running jobs with ErrJobCanceled and reports how many
// were running.
func (w *Worker) CancelJobs() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, cancel := range w.cancels {
		cancel(ErrJobCanceled)
	}

	return len(w.cancels)
}
