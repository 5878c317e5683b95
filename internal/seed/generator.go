package seed

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Plan is a generated roster. Batch players carry distinct depths within
// their group and may be posted in any order. Tail holds two unranked players
// per group that must be posted one after another, in slice order, after the
// batch.
type Plan struct {
	Batch []Player
	Tail  []Player
}

// Generate spreads n players round-robin over every configured (game,
// position) pair and shuffles their depths within each group.
func Generate(cfg *Config, n int) Plan {
	groups := make([]Group, 0)
	for _, g := range cfg.Games {
		for _, pos := range g.Positions {
			groups = append(groups, Group{GameName: g.Name, Position: pos})
		}
	}
	if len(groups) == 0 || n <= 0 {
		return Plan{}
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15))

	sizes := make(map[Group]int, len(groups))
	batch := make([]Player, 0, n)
	for i := 0; i < n; i++ {
		g := groups[i%len(groups)]
		sizes[g]++
		batch = append(batch, newPlayer(g, sizes[g]))
	}

	// Depths are a permutation of 0..size-1 per group, so batch order never matters.
	perms := make(map[Group][]int, len(sizes))
	for _, g := range groups {
		if size, ok := sizes[g]; ok {
			perms[g] = rng.Perm(size)
		}
	}
	for i := range batch {
		g := batch[i].Group()
		depth := perms[g][batch[i].ID-1]
		batch[i].Depth = &depth
	}
	rng.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })

	var tail []Player
	for _, g := range groups {
		size, ok := sizes[g]
		if !ok {
			continue
		}
		tail = append(tail, newPlayer(g, size+1), newPlayer(g, size+2))
	}

	return Plan{Batch: batch, Tail: tail}
}

// Expected returns the chart each group must produce once the plan is posted:
// batch players by ascending depth, then the tail players, latest first.
func (p Plan) Expected() map[Group][]int {
	byGroup := make(map[Group][]Player)
	for _, pl := range p.Batch {
		byGroup[pl.Group()] = append(byGroup[pl.Group()], pl)
	}

	out := make(map[Group][]int, len(byGroup))
	for g, players := range byGroup {
		slices.SortFunc(players, func(a, b Player) int { return *a.Depth - *b.Depth })
		ids := make([]int, 0, len(players)+2)
		for _, pl := range players {
			ids = append(ids, pl.ID)
		}
		out[g] = ids
	}

	for i := len(p.Tail) - 1; i >= 0; i-- {
		pl := p.Tail[i]
		out[pl.Group()] = append(out[pl.Group()], pl.ID)
	}
	return out
}

// Total returns the number of players in the plan.
func (p Plan) Total() int { return len(p.Batch) + len(p.Tail) }

func newPlayer(g Group, id int) Player {
	return Player{
		ID:       id,
		Name:     fmt.Sprintf("%s %s #%d", g.GameName, g.Position, id),
		Position: g.Position,
		GameName: g.GameName,
	}
}
