package depthchart

import (
	"fmt"
	"sort"

	"github.com/okian/depthchart/internal/domain/model"
)

// groups is an insertion-ordered mapping from (game, position) to the
// players of that chart. Keys are emitted in the order they were first seen.
type groups struct {
	keys    []model.GroupKey
	members map[model.GroupKey][]model.Player
}

func newGroups() *groups {
	return &groups{members: make(map[model.GroupKey][]model.Player)}
}

func (g *groups) add(p model.Player) {
	k := p.Group()
	if _, ok := g.members[k]; !ok {
		g.keys = append(g.keys, k)
	}
	g.members[k] = append(g.members[k], p)
}

// Normalize returns p with a missing depth replaced by model.UnrankedDepth.
func Normalize(p model.Player) model.Player {
	if p.Depth == nil {
		p.Depth = model.DepthOf(model.UnrankedDepth)
	}
	return p
}

// less orders players within a chart: lower depth first, then the most
// recently inserted player among equal depths.
func less(a, b model.Player) bool {
	if a.Rank() != b.Rank() {
		return a.Rank() < b.Rank()
	}
	return a.Sequence > b.Sequence
}

// Chart groups players by (game, position), sorts every group and
// concatenates the groups. Group order follows first appearance in players.
func Chart(players []model.Player) []model.Player {
	g := newGroups()
	for _, p := range players {
		g.add(p)
	}

	out := make([]model.Player, 0, len(players))
	for _, k := range g.keys {
		members := g.members[k]
		sort.SliceStable(members, func(i, j int) bool {
			return less(members[i], members[j])
		})
		out = append(out, members...)
	}
	return out
}

// PlayersUnder returns the players ranked below target in target's chart.
// chart must be the output of Chart. Returns ErrPlayerNotFound when no entry
// matches target's identity.
func PlayersUnder(chart []model.Player, target model.Identity) ([]model.Player, error) {
	if !contains(chart, target) {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, target)
	}

	group := filterGroup(chart, target.Group())
	cut := cutIndex(group, target.ID)

	out := make([]model.Player, len(group)-cut-1)
	copy(out, group[cut+1:])
	return out, nil
}

func contains(players []model.Player, id model.Identity) bool {
	_, ok := find(players, id)
	return ok
}

// find returns the first player matching id.
func find(players []model.Player, id model.Identity) (model.Player, bool) {
	for _, p := range players {
		if id.Matches(p) {
			return p, true
		}
	}
	return model.Player{}, false
}

// filterGroup keeps the players of one chart, preserving their order.
func filterGroup(chart []model.Player, key model.GroupKey) []model.Player {
	var out []model.Player
	for _, p := range chart {
		if p.Group() == key {
			out = append(out, p)
		}
	}
	return out
}

// cutIndex returns the index of the first player in group with the given id.
// Callers must have checked that such a player exists.
func cutIndex(group []model.Player, id int) int {
	for i, p := range group {
		if p.ID == id {
			return i
		}
	}
	return len(group) - 1
}
