package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inboxpilot/scheduler/internal/scheduler"
	"github.com/inboxpilot/scheduler/internal/storage"
	"github.com/inboxpilot/scheduler/pkg/metrics"
)

// Options tunes one identity's polling worker.
type Options struct {
	PollInterval  time.Duration
	BatchSize     int
	PruneAfter    time.Duration // zero disables housekeeping
	PruneInterval time.Duration
}

// Worker runs the single-threaded cooperative polling loop for one
// monitored identity. There is no parallelism within a cycle; distinct
// identities run as independent workers with separate state partitions.
type Worker struct {
	identity   string
	source     Source
	reconciler *scheduler.Reconciler
	store      storage.Store
	opts       Options
	logger     *zap.Logger
}

func NewWorker(identity string, source Source, reconciler *scheduler.Reconciler, store storage.Store, opts Options, logger *zap.Logger) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 150 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = 24 * time.Hour
	}
	return &Worker{
		identity:   identity,
		source:     source,
		reconciler: reconciler,
		store:      store,
		opts:       opts,
		logger:     logger.With(zap.String("identity", identity)),
	}
}

// Run polls until the context is cancelled. Cancellation takes effect
// between messages, never mid-message.
func (w *Worker) Run(ctx context.Context) error {
	if _, err := w.reconciler.RecoverDangling(ctx); err != nil {
		w.logger.Warn("Failed to inspect dangling mutation intents", zap.Error(err))
	}

	w.logger.Info("Worker started",
		zap.Duration("poll_interval", w.opts.PollInterval),
		zap.Int("batch_size", w.opts.BatchSize))

	poll := time.NewTicker(w.opts.PollInterval)
	defer poll.Stop()
	prune := time.NewTicker(w.opts.PruneInterval)
	defer prune.Stop()

	w.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker stopped")
			return ctx.Err()
		case <-poll.C:
			w.cycle(ctx)
		case <-prune.C:
			w.housekeep(ctx)
		}
	}
}

// cycle fetches one batch and folds it message by message, oldest
// first. A storage fault aborts the rest of the cycle; any other
// failure is already absorbed into the message's recorded outcome.
func (w *Worker) cycle(ctx context.Context) {
	start := time.Now()

	batch, err := w.source.FetchBatch(ctx, w.opts.BatchSize)
	if err != nil {
		w.logger.Error("Failed to fetch message batch", zap.Error(err))
		return
	}
	if len(batch) == 0 {
		w.logger.Debug("No new messages this cycle")
		return
	}
	w.logger.Info("Processing batch", zap.Int("messages", len(batch)))

	for _, msg := range batch {
		outcome, err := w.reconciler.Process(ctx, msg)
		if err != nil {
			w.logger.Error("Aborting cycle on storage fault",
				zap.Error(err),
				zap.String("message_id", msg.ID))
			break
		}
		w.logger.Info("Processed message",
			zap.String("message_id", msg.ID),
			zap.String("thread_id", msg.ThreadID),
			zap.String("outcome", string(outcome)))
	}

	if stats, err := w.store.Stats(ctx, w.identity); err == nil {
		metrics.ActiveThreads.WithLabelValues(w.identity).Set(float64(stats.Threads))
	}
	metrics.CycleDuration.WithLabelValues(w.identity).Observe(time.Since(start).Seconds())
}

func (w *Worker) housekeep(ctx context.Context) {
	if w.opts.PruneAfter <= 0 {
		return
	}
	cutoff := time.Now().Add(-w.opts.PruneAfter)
	removed, err := w.store.PruneInactiveThreads(ctx, w.identity, cutoff)
	if err != nil {
		w.logger.Error("Failed to prune inactive threads", zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Info("Pruned inactive threads",
			zap.Int("removed", removed),
			zap.Time("cutoff", cutoff))
	}
}
