package seed

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrChartMismatch is returned when a chart read back from the service breaks
// an ordering rule or differs from the plan.
var ErrChartMismatch = errors.New("chart mismatch")

// unrankedDepth is the depth the service reports for players added without one.
const unrankedDepth = math.MaxInt32

// VerifyChart checks that chart keeps every group contiguous, orders each
// group by ascending depth, and matches want group by group.
func VerifyChart(chart []Player, want map[Group][]int) error {
	got := make(map[Group][]int, len(want))
	seen := make(map[Group]bool, len(want))

	var prev *Player
	for i := range chart {
		p := chart[i]
		g := p.Group()

		if prev == nil || prev.Group() != g {
			if seen[g] {
				return fmt.Errorf("%w: group %s is split at index %d", ErrChartMismatch, g, i)
			}
			seen[g] = true
		} else if depthOf(*prev) > depthOf(p) {
			return fmt.Errorf("%w: %s player %d (depth %d) ranked above player %d (depth %d)",
				ErrChartMismatch, g, prev.ID, depthOf(*prev), p.ID, depthOf(p))
		}

		got[g] = append(got[g], p.ID)
		prev = &chart[i]
	}

	if len(got) != len(want) {
		return fmt.Errorf("%w: chart has %d groups, want %d", ErrChartMismatch, len(got), len(want))
	}
	for g, ids := range want {
		if !slices.Equal(got[g], ids) {
			return fmt.Errorf("%w: %s is %v, want %v", ErrChartMismatch, g, got[g], ids)
		}
	}
	return nil
}

// VerifyUnder checks a players-under answer against the expected group order.
func VerifyUnder(g Group, order []int, target int, under []Player) error {
	idx := slices.Index(order, target)
	if idx < 0 {
		return fmt.Errorf("%w: player %d is not in %s", ErrChartMismatch, target, g)
	}

	ids := make([]int, 0, len(under))
	for _, p := range under {
		if p.Group() != g {
			return fmt.Errorf("%w: players under %d in %s include %s player %d", ErrChartMismatch, target, g, p.Group(), p.ID)
		}
		ids = append(ids, p.ID)
	}

	if want := order[idx+1:]; !slices.Equal(ids, want) {
		return fmt.Errorf("%w: players under %d in %s are %v, want %v", ErrChartMismatch, target, g, ids, want)
	}
	return nil
}

func depthOf(p Player) int {
	if p.Depth == nil {
		return unrankedDepth
	}
	return *p.Depth
}
