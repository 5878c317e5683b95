package model

import (
	"fmt"
	"math"
)

// UnrankedDepth is the depth assigned to players added without one.
// It is the largest representable rank, so unranked players sort last.
const UnrankedDepth = math.MaxInt32

// Player is a single entry in a depth chart.
type Player struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	GameName string `json:"gameName"`
	Depth    *int   `json:"depth,omitempty"`

	// Sequence is assigned by the store on insert and only used to break
	// depth ties. It is never exposed to API clients.
	Sequence int64 `json:"-"`
}

// Rank returns the player's depth, treating a missing depth as unranked.
func (p Player) Rank() int {
	if p.Depth == nil {
		return UnrankedDepth
	}
	return *p.Depth
}

// Identity returns the (id, position, game) triple identifying p.
func (p Player) Identity() Identity {
	return Identity{ID: p.ID, Position: p.Position, GameName: p.GameName}
}

// Group returns the chart p belongs to.
func (p Player) Group() GroupKey {
	return GroupKey{GameName: p.GameName, Position: p.Position}
}

// Identity uniquely identifies a stored player for lookup and removal.
type Identity struct {
	ID       int
	Position string
	GameName string
}

// Matches reports whether p carries this identity.
func (id Identity) Matches(p Player) bool {
	return p.ID == id.ID && p.Position == id.Position && p.GameName == id.GameName
}

// Group returns the chart the identity points into.
func (id Identity) Group() GroupKey {
	return GroupKey{GameName: id.GameName, Position: id.Position}
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%d", id.GameName, id.Position, id.ID)
}

// GroupKey identifies one depth chart: a position within a game.
type GroupKey struct {
	GameName string
	Position string
}

// DepthOf is a convenience for building players with an explicit depth.
func DepthOf(d int) *int {
	return &d
}
