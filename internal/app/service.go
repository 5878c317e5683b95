// Package service provides the depth chart application service that
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/depthchart/internal/adapters/repository"
	"github.com/okian/depthchart/internal/domain/depthchart"
	"github.com/okian/depthchart/internal/domain/model"
	"github.com/okian/depthchart/internal/domain/roster"
	"github.com/okian/depthchart/pkg/logger"
	"github.com/okian/depthchart/pkg/metrics"
)

// Service validates requests, runs them through the ranking engine and
// owns the player store lifecycle.
type Service struct {
	mu sync.RWMutex

	// writeMu serializes mutations so a removal's lookup and delete see the
	// same snapshot.
	writeMu sync.Mutex

	// Core components
	store     repository.Store
	ownsStore bool
	engine    *depthchart.Engine
	validator *roster.Validator

	// Configuration
	storeKind  string
	sqlitePath string
	games      []roster.Game

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects an already opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreKind selects the store opened on Start: memory or sqlite.
func WithStoreKind(kind string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
	}
}

// WithSQLitePath sets the database file used by the sqlite store.
func WithSQLitePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithGames sets the games and positions players may be added to.
func WithGames(games []roster.Game) Option {
	return func(s *Service) {
		if len(games) > 0 {
			s.games = games
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeKind:  repository.KindMemory,
		sqlitePath: "depthchart.db",
	}

	for _, opt := range opts {
		opt(s)
	}

	s.validator = roster.NewValidator(s.games)
	return s
}

// Start opens the store and builds the engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting depth chart service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeKind, s.sqlitePath)
		if err != nil {
			metrics.RecordErrorByComponent("service", "store_open")
			return fmt.Errorf("failed to open %s store: %w", s.storeKind, err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "opened player store", logger.String("kind", s.storeKind))
	}

	s.engine = depthchart.New(s.store)
	s.started = true
	s.startedAt = time.Now()

	s.logger.Info(ctx, "depth chart service started",
		logger.String("store", s.storeKind),
		logger.Int("games", len(s.games)),
	)
	return nil
}

// Stop releases the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping depth chart service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "failed to close player store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.engine = nil
	s.started = false
	s.logger.Info(ctx, "depth chart service stopped")
}

// Games returns the supported games and positions.
func (s *Service) Games() []roster.Game {
	return s.validator.Games()
}

// AddPlayer validates p and adds it to its chart. The stored player, with
// any missing depth filled in, is returned.
func (s *Service) AddPlayer(ctx context.Context, p model.Player) (model.Player, error) {
	if err := s.validator.ValidateAdd(p); err != nil {
		metrics.RecordValidationFailure("add")
		return model.Player{}, err
	}

	engine, err := s.currentEngine()
	if err != nil {
		return model.Player{}, err
	}

	s.writeMu.Lock()
	stored, err := engine.AddPlayer(ctx, p)
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Warn(ctx, "failed to add player",
			logger.String("player", p.Identity().String()),
			logger.Error(err),
		)
		return model.Player{}, err
	}

	metrics.RecordPlayerAdded()
	s.logger.Debug(ctx, "player added",
		logger.String("player", stored.Identity().String()),
		logger.Int("depth", stored.Rank()),
		logger.Int64("sequence", stored.Sequence),
	)
	return stored, nil
}

// GetChart returns every chart, concatenated.
func (s *Service) GetChart(ctx context.Context) ([]model.Player, error) {
	engine, err := s.currentEngine()
	if err != nil {
		return nil, err
	}

	chart, err := engine.GetChart(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to build depth chart", logger.Error(err))
		return nil, err
	}
	metrics.RecordChartQuery()
	return chart, nil
}

// GetPlayersUnder returns the players ranked below the identified player
// in its chart.
func (s *Service) GetPlayersUnder(ctx context.Context, id model.Identity) ([]model.Player, error) {
	if err := s.validator.ValidateIdentity(id); err != nil {
		metrics.RecordValidationFailure("players_under")
		return nil, err
	}

	engine, err := s.currentEngine()
	if err != nil {
		return nil, err
	}

	metrics.RecordPlayersUnderQuery()
	under, err := engine.GetPlayersUnder(ctx, id)
	if err != nil {
		s.recordLookupError(ctx, "players under lookup failed", id, err)
		return nil, err
	}
	return under, nil
}

// RemovePlayer deletes the identified player from its chart.
func (s *Service) RemovePlayer(ctx context.Context, id model.Identity) error {
	if err := s.validator.ValidateIdentity(id); err != nil {
		metrics.RecordValidationFailure("remove")
		return err
	}

	engine, err := s.currentEngine()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	err = engine.RemovePlayer(ctx, id)
	s.writeMu.Unlock()
	if err != nil {
		s.recordLookupError(ctx, "failed to remove player", id, err)
		return err
	}

	metrics.RecordPlayerRemoved()
	s.logger.Debug(ctx, "player removed", logger.String("player", id.String()))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(goroutines)

	stats := map[string]interface{}{
		"started":    s.started,
		"store":      s.storeKind,
		"games":      len(s.games),
		"goroutines": goroutines,
		"heapBytes":  mem.HeapAlloc,
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		if n, err := s.store.Count(context.Background()); err == nil {
			stats["totalPlayers"] = n
			metrics.UpdatePlayersTotal(n)
		}
	}

	return stats
}

func (s *Service) currentEngine() (*depthchart.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

func (s *Service) recordLookupError(ctx context.Context, msg string, id model.Identity, err error) {
	if errors.Is(err, depthchart.ErrPlayerNotFound) {
		metrics.RecordPlayerNotFound()
		s.logger.Debug(ctx, msg, logger.String("player", id.String()), logger.Error(err))
		return
	}
	s.logger.Error(ctx, msg, logger.String("player", id.String()), logger.Error(err))
}
