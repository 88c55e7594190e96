package monitoring

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"insight_gateway/internal/queue"
	"insight_gateway/internal/utils"
)

// Worker drains queued log entries into the store in batches.
type Worker struct {
	q      queue.Queue
	store  Store
	logger *utils.Logger

	batchSize    int
	batchTimeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker draining q into store.
func NewWorker(q queue.Queue, store Store, cfg *queue.Config, logger *utils.Logger) *Worker {
	if logger == nil {
		logger = utils.NewLogger("MONITOR_WORKER")
	}
	return &Worker{
		q:            q,
		store:        store,
		logger:       logger,
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout,
	}
}

// Start launches the drain loop.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop cancels the drain loop and waits for it to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Final best-effort drain so shutdown does not lose buffered entries
			w.DrainOnce(context.Background())
			return
		default:
		}

		items, err := w.q.DequeueWithTimeout(ctx, w.batchSize, w.batchTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("dequeue failed", "error", err)
			time.Sleep(w.batchTimeout)
			continue
		}

		w.flush(ctx, items)
	}
}

// DrainOnce synchronously drains whatever is currently queued. Used on
// shutdown and in tests.
func (w *Worker) DrainOnce(ctx context.Context) {
	for {
		items, err := w.q.DequeueWithTimeout(ctx, w.batchSize, 10*time.Millisecond)
		if err != nil || len(items) == 0 {
			return
		}
		w.flush(ctx, items)
	}
}

func (w *Worker) flush(ctx context.Context, items []interface{}) {
	if len(items) == 0 {
		return
	}

	entries := make([]RequestLog, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case RequestLog:
			entries = append(entries, v)
		case json.RawMessage:
			// Redis queue items come back as raw JSON
			var e RequestLog
			if err := json.Unmarshal(v, &e); err != nil {
				w.logger.Error("dropping undecodable log entry", "error", err)
				continue
			}
			entries = append(entries, e)
		default:
			w.logger.Error("dropping log entry of unexpected type", "type", item)
		}
	}

	if err := w.store.InsertMany(ctx, entries); err != nil {
		// Entries are dropped: monitoring is observability, not ledger
		w.logger.Error("failed to persist log batch", "error", err, "dropped", len(entries))
	}
}
