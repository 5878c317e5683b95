package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/okian/depthchart/internal/domain/model"
	"github.com/okian/depthchart/pkg/metrics"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteStore persists players in a SQLite database. The sequence column is
// an AUTOINCREMENT primary key, so values are never reused.
type SQLiteStore struct {
	db *sqlx.DB
}

type dbPlayer struct {
	Sequence int64  `db:"sequence"`
	ID       int    `db:"id"`
	Name     string `db:"name"`
	Position string `db:"position"`
	GameName string `db:"game_name"`
	Depth    int    `db:"depth"`
}

func (r dbPlayer) toModel() model.Player {
	return model.Player{
		ID:       r.ID,
		Name:     r.Name,
		Position: r.Position,
		GameName: r.GameName,
		Depth:    model.DepthOf(r.Depth),
		Sequence: r.Sequence,
	}
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps an in-memory
	// database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA synchronous = NORMAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if err := runMigrations(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdatePlayersTotal(n)
	}
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

// Add inserts p and returns it with the sequence assigned by the database.
func (s *SQLiteStore) Add(ctx context.Context, p model.Player) (model.Player, error) {
	defer observe("add", time.Now())

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, position, game_name, depth) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Position, p.GameName, p.Rank(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			metrics.RecordErrorByComponent("repository", "duplicate")
			return model.Player{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.Identity())
		}
		metrics.RecordErrorByComponent("repository", "insert_failed")
		return model.Player{}, fmt.Errorf("failed to insert player %s: %w", p.Identity(), err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return model.Player{}, fmt.Errorf("failed to read player sequence: %w", err)
	}

	stored := clonePlayer(p)
	stored.Depth = model.DepthOf(p.Rank())
	stored.Sequence = seq
	s.refreshCount(ctx)
	return stored, nil
}

// Remove deletes the row holding p's sequence.
func (s *SQLiteStore) Remove(ctx context.Context, p model.Player) error {
	defer observe("remove", time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE sequence = ?`, p.Sequence)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "delete_failed")
		return fmt.Errorf("failed to delete player %s: %w", p.Identity(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deleted rows: %w", err)
	}
	if n == 0 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: sequence %d", ErrNotFound, p.Sequence)
	}
	s.refreshCount(ctx)
	return nil
}

// List returns every stored player, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Player, error) {
	defer observe("list", time.Now())

	var rows []dbPlayer
	err := s.db.SelectContext(ctx, &rows,
		`SELECT sequence, id, name, position, game_name, depth FROM players ORDER BY sequence`)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "select_failed")
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	out := make([]model.Player, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// Count returns the number of stored players.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM players`); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) refreshCount(ctx context.Context) {
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdatePlayersTotal(n)
	}
}
