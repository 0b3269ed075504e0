package agent

import (
	"context"
	"sync"

	"github.com/inboxpilot/scheduler/internal/models"
)

// Source yields batches of inbound messages for one monitored
// identity. Implementations must return messages oldest first so a
// reply is always folded after the message it answers. Retrieval,
// polling cadence, and provider specifics live behind this interface.
type Source interface {
	FetchBatch(ctx context.Context, limit int) ([]models.InboundMessage, error)
}

// QueueSource is an in-memory FIFO source for tests and local runs.
type QueueSource struct {
	mu    sync.Mutex
	queue []models.InboundMessage
}

func NewQueueSource() *QueueSource {
	return &QueueSource{}
}

// Push appends messages in arrival order.
func (q *QueueSource) Push(msgs ...models.InboundMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, msgs...)
}

func (q *QueueSource) FetchBatch(ctx context.Context, limit int) ([]models.InboundMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.queue)
	if limit > 0 && n > limit {
		n = limit
	}
	batch := make([]models.InboundMessage, n)
	copy(batch, q.queue[:n])
	q.queue = q.queue[n:]
	return batch, nil
}
