package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/depthchart/internal/domain/model"
	"github.com/okian/depthchart/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemoryStore keeps players in process memory, keyed by insertion sequence.
// It is safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	bySeq      map[int64]model.Player
	byIdentity map[model.Identity]int64
	seq        Sequence

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an in-memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		bySeq:                 make(map[int64]model.Player),
		byIdentity:            make(map[model.Identity]int64),
		seq:                   NewCounter(0),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Add stores p under a new sequence number.
func (s *MemoryStore) Add(ctx context.Context, p model.Player) (model.Player, error) {
	defer observe("add", time.Now())

	id := p.Identity()

	s.mu.Lock()
	if _, exists := s.byIdentity[id]; exists {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "duplicate")
		return model.Player{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
	}
	p = clonePlayer(p)
	p.Sequence = s.seq.Next()
	s.bySeq[p.Sequence] = p
	s.byIdentity[id] = p.Sequence
	count := len(s.bySeq)
	s.mu.Unlock()

	metrics.UpdatePlayersTotal(count)
	return clonePlayer(p), nil
}

// Remove deletes the record with p's sequence number.
func (s *MemoryStore) Remove(ctx context.Context, p model.Player) error {
	defer observe("remove", time.Now())

	s.mu.Lock()
	stored, ok := s.bySeq[p.Sequence]
	if !ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: sequence %d", ErrNotFound, p.Sequence)
	}
	delete(s.bySeq, p.Sequence)
	delete(s.byIdentity, stored.Identity())
	count := len(s.bySeq)
	s.mu.Unlock()

	metrics.UpdatePlayersTotal(count)
	return nil
}

// List returns a copy of every stored player, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]model.Player, error) {
	defer observe("list", time.Now())

	s.mu.RLock()
	out := make([]model.Player, 0, len(s.bySeq))
	for _, p := range s.bySeq {
		out = append(out, clonePlayer(p))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// Count returns the number of stored players.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySeq), nil
}

// Close stops the background metrics goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater periodically publishes the record count.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.Count(ctx)
				metrics.UpdatePlayersTotal(n)
			}
		}
	}()
}

// clonePlayer copies p so callers never share the depth pointer with the store.
func clonePlayer(p model.Player) model.Player {
	if p.Depth != nil {
		p.Depth = model.DepthOf(*p.Depth)
	}
	return p
}

// observe records the latency of a store operation started at start.
func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
