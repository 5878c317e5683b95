// Package seed posts a generated roster to a running depth chart service and
// verifies the charts it reads back.
package seed

import (
	"time"

	"github.com/okian/depthchart/internal/domain/roster"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL string        // Base URL of the service
	Players int           // Number of ranked players to post concurrently
	Workers int           // Number of concurrent requests
	Timeout time.Duration // HTTP request timeout
	Seed    int64         // Generator seed; equal seeds give equal rosters
	Verbose bool          // Log every request
	Games   []roster.Game // Games and positions to generate players for
}

// Player is the wire form of a depth chart entry.
type Player struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	GameName string `json:"gameName"`
	Depth    *int   `json:"depth,omitempty"`
}

// Group returns the chart key of p.
func (p Player) Group() Group {
	return Group{GameName: p.GameName, Position: p.Position}
}

// Group identifies one depth chart.
type Group struct {
	GameName string
	Position string
}

func (g Group) String() string { return g.GameName + "/" + g.Position }

// Stats holds run statistics.
type Stats struct {
	PlayersGenerated int
	PlayersCreated   int
	PlayersRejected  int
	Throttled        int
	QueriesRun       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
