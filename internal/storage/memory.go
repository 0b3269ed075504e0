package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inboxpilot/scheduler/internal/models"
)

type identityPartition struct {
	threads   map[string]*models.ThreadState
	processed map[string]models.MessageRecord
	mutations map[string]*mutationEntry
}

type mutationEntry struct {
	intent    models.PendingIntent
	resolved  bool
	confirmed bool
}

// MemoryStore keeps all state in process memory. It is used for tests
// and for running the agent without a database.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]*identityPartition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]*identityPartition)}
}

func (s *MemoryStore) partition(identity string) *identityPartition {
	p, ok := s.partitions[identity]
	if !ok {
		p = &identityPartition{
			threads:   make(map[string]*models.ThreadState),
			processed: make(map[string]models.MessageRecord),
			mutations: make(map[string]*mutationEntry),
		}
		s.partitions[identity] = p
	}
	return p
}

func (s *MemoryStore) GetThread(ctx context.Context, identity, threadID string) (*models.ThreadState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partitions[identity]
	if !ok {
		return nil, nil
	}
	state, ok := p.threads[threadID]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (s *MemoryStore) HasProcessed(ctx context.Context, identity, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partitions[identity]
	if !ok {
		return false, nil
	}
	_, ok = p.processed[messageID]
	return ok, nil
}

func (s *MemoryStore) Commit(ctx context.Context, identity string, state *models.ThreadState, rec models.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(identity)
	if state != nil {
		p.threads[state.ThreadID] = state.Clone()
	}
	if _, exists := p.processed[rec.MessageID]; !exists {
		p.processed[rec.MessageID] = rec
	}
	return nil
}

func (s *MemoryStore) BeginMutation(ctx context.Context, identity string, intent models.PendingIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(identity)
	if _, exists := p.mutations[intent.ID]; exists {
		return fmt.Errorf("mutation intent %s already exists", intent.ID)
	}
	p.mutations[intent.ID] = &mutationEntry{intent: intent}
	return nil
}

func (s *MemoryStore) ResolveMutation(ctx context.Context, identity, intentID string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(identity)
	entry, ok := p.mutations[intentID]
	if !ok {
		return fmt.Errorf("mutation intent %s not found", intentID)
	}
	entry.resolved = true
	entry.confirmed = confirmed
	return nil
}

func (s *MemoryStore) DanglingMutations(ctx context.Context, identity string) ([]models.PendingIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partitions[identity]
	if !ok {
		return nil, nil
	}
	var out []models.PendingIntent
	for _, entry := range p.mutations {
		if !entry.resolved {
			out = append(out, entry.intent)
		}
	}
	return out, nil
}

func (s *MemoryStore) PruneInactiveThreads(ctx context.Context, identity string, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partitions[identity]
	if !ok {
		return 0, nil
	}
	removed := 0
	for id, state := range p.threads {
		if state.LastUpdated.Before(olderThan) {
			delete(p.threads, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Stats(ctx context.Context, identity string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partitions[identity]
	if !ok {
		return Stats{}, nil
	}
	stats := Stats{
		Threads:           len(p.threads),
		ProcessedMessages: len(p.processed),
	}
	for _, state := range p.threads {
		if state.Status == models.StatusScheduled {
			stats.ScheduledThreads++
		}
	}
	for _, entry := range p.mutations {
		if !entry.resolved {
			stats.PendingMutations++
		}
	}
	return stats, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
