package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/okian/depthchart/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrChartNotEmpty is returned when the target service already holds players.
var ErrChartNotEmpty = errors.New("service chart is not empty")

// Run posts a generated roster and verifies what the service returns.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("seed")

	log.Info(ctx, "starting depth chart seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Int64("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	var throttled atomic.Int64
	client.throttled = func() { throttled.Add(1) }

	// Step 1: service must be up and empty
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	existing, err := client.Chart(ctx)
	if err != nil {
		return stats, fmt.Errorf("initial chart read failed: %w", err)
	}
	if len(existing) > 0 {
		return stats, fmt.Errorf("%w: %d players present", ErrChartNotEmpty, len(existing))
	}

	// Step 2: generate
	plan := Generate(cfg, cfg.Players)
	stats.PlayersGenerated = plan.Total()
	log.Info(ctx, "generated roster", logger.Int("batch", len(plan.Batch)), logger.Int("tail", len(plan.Tail)))

	// Step 3: post the batch concurrently, then the tail in order
	if err := submitBatch(ctx, cfg, client, plan.Batch, stats); err != nil {
		return stats, fmt.Errorf("batch submission failed: %w", err)
	}
	for _, p := range plan.Tail {
		if err := submitOne(ctx, cfg, client, p); err != nil {
			return stats, fmt.Errorf("tail submission failed: %w", err)
		}
		stats.PlayersCreated++
	}
	stats.Throttled = int(throttled.Load())

	// Step 4: verify the chart
	want := plan.Expected()
	chart, err := client.Chart(ctx)
	if err != nil {
		return stats, fmt.Errorf("chart read failed: %w", err)
	}
	if err := VerifyChart(chart, want); err != nil {
		return stats, err
	}
	log.Info(ctx, "chart verified", logger.Int("players", len(chart)), logger.Int("groups", len(want)))

	// Step 5: players-under per group
	if err := verifyQueries(ctx, cfg, client, want, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

func submitBatch(ctx context.Context, cfg *Config, client *Client, batch []Player, stats *Stats) error {
	var created, rejected atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, p := range batch {
		g.Go(func() error {
			if err := submitOne(gctx, cfg, client, p); err != nil {
				rejected.Add(1)
				return err
			}
			created.Add(1)
			return nil
		})
	}
	err := g.Wait()

	stats.PlayersCreated += int(created.Load())
	stats.PlayersRejected += int(rejected.Load())
	return err
}

func submitOne(ctx context.Context, cfg *Config, client *Client, p Player) error {
	status, err := client.AddPlayer(ctx, p)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logger.Get().Debug(ctx, "player posted",
			logger.String("group", p.Group().String()),
			logger.Int("id", p.ID),
			logger.Int("status", status))
	}
	if status != http.StatusCreated {
		return fmt.Errorf("%w: adding %s player %d returned %d", ErrUnexpectedStatus, p.Group(), p.ID, status)
	}
	return nil
}

// verifyQueries asks for the players under the head of every group, and for
// a player that does not exist.
func verifyQueries(ctx context.Context, cfg *Config, client *Client, want map[Group][]int, stats *Stats) error {
	groups := make([]Group, 0, len(want))
	for g := range want {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].String() < groups[j].String() })

	var queries atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, grp := range groups {
		order := want[grp]
		g.Go(func() error {
			under, status, err := client.PlayersUnder(gctx, grp, order[0])
			queries.Add(1)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("%w: players under %d in %s returned %d", ErrUnexpectedStatus, order[0], grp, status)
			}
			return VerifyUnder(grp, order, order[0], under)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(groups) > 0 {
		grp := groups[0]
		_, status, err := client.PlayersUnder(ctx, grp, len(want[grp])+1)
		queries.Add(1)
		if err != nil {
			return err
		}
		if status != http.StatusNotFound {
			return fmt.Errorf("%w: unknown player in %s returned %d, want 404", ErrUnexpectedStatus, grp, status)
		}
	}

	stats.QueriesRun = int(queries.Load())
	return nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var playersPerSecond float64
	if stats.Duration > 0 {
		playersPerSecond = float64(stats.PlayersCreated) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("playersGenerated", stats.PlayersGenerated),
		logger.Int("playersCreated", stats.PlayersCreated),
		logger.Int("playersRejected", stats.PlayersRejected),
		logger.Int("throttled", stats.Throttled),
		logger.Int("queriesRun", stats.QueriesRun),
		logger.Duration("duration", stats.Duration),
		logger.Float64("playersPerSecond", playersPerSecond))
}
