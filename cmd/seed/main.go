package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/depthchart/internal/config"
	"github.com/okian/depthchart/internal/seed"
)

// Default configuration constants.
const (
	defaultPlayers    = 500
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players = flag.Int("players", defaultPlayers, "Number of ranked players to post concurrently")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "Generator seed")
		verbose = flag.Bool("verbose", false, "Log every request")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := seed.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL: *baseURL,
		Players: *players,
		Workers: *workers,
		Timeout: *timeout,
		Seed:    *seedVal,
		Verbose: *verbose,
		Games:   config.DefaultGames(),
	}

	_, err := seed.Run(ctx, cfg)
	cancel()
	stop()
	if err != nil {
		os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
