// Package roster validates players against the configured games and positions
// before they reach the depth chart engine.
package roster

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/depthchart/internal/domain/model"
)

// ErrInvalidPlayer is matched by every ValidationError.
var ErrInvalidPlayer = errors.New("invalid player")

// Game lists the positions a game supports.
type Game struct {
	Name      string   `koanf:"name" json:"name"`
	Positions []string `koanf:"positions" json:"positions"`
}

// Violation is a single failed rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError holds every rule a request violated.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidPlayer, strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrInvalidPlayer) hold for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPlayer
}

// Messages returns the violation messages in rule order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return msgs
}

// Validator checks players against a fixed set of supported games.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	games map[string]map[string]struct{}
}

// NewValidator builds a validator for games. Game and position names are
// matched exactly.
func NewValidator(games []Game) *Validator {
	v := &Validator{games: make(map[string]map[string]struct{}, len(games))}
	for _, g := range games {
		positions, ok := v.games[g.Name]
		if !ok {
			positions = make(map[string]struct{}, len(g.Positions))
			v.games[g.Name] = positions
		}
		for _, p := range g.Positions {
			positions[p] = struct{}{}
		}
	}
	return v
}

// Supports reports whether position is configured for game.
func (v *Validator) Supports(game, position string) bool {
	positions, ok := v.games[game]
	if !ok {
		return false
	}
	_, ok = positions[position]
	return ok
}

// Games returns the configured games with sorted positions, ordered by name.
func (v *Validator) Games() []Game {
	out := make([]Game, 0, len(v.games))
	for name, positions := range v.games {
		g := Game{Name: name, Positions: make([]string, 0, len(positions))}
		for p := range positions {
			g.Positions = append(g.Positions, p)
		}
		sort.Strings(g.Positions)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ValidateAdd checks a player about to be added to a chart.
func (v *Validator) ValidateAdd(p model.Player) error {
	var violations []Violation
	violations = v.identityRules(violations, p.Identity())
	if strings.TrimSpace(p.Name) == "" {
		violations = append(violations, Violation{Field: "name", Message: "'Name' must not be empty."})
	}
	if p.Depth != nil && *p.Depth < 0 {
		violations = append(violations, Violation{Field: "depth", Message: "'Depth' must not be negative."})
	}
	return result(violations)
}

// ValidateIdentity checks the identity used by lookups and removals.
func (v *Validator) ValidateIdentity(id model.Identity) error {
	return result(v.identityRules(nil, id))
}

func (v *Validator) identityRules(violations []Violation, id model.Identity) []Violation {
	if id.ID <= 0 {
		violations = append(violations, Violation{Field: "id", Message: "'Id' must be greater than '0'."})
	}
	if strings.TrimSpace(id.Position) == "" {
		violations = append(violations, Violation{Field: "position", Message: "'Position' must not be empty."})
	}
	if strings.TrimSpace(id.GameName) == "" {
		violations = append(violations, Violation{Field: "gameName", Message: "'Game Name' must not be empty."})
	}
	if !v.Supports(id.GameName, id.Position) {
		violations = append(violations, Violation{
			Field:   "position",
			Message: fmt.Sprintf("Either the Game or the position %s is not supported for %s", id.Position, id.GameName),
		})
	}
	return violations
}

func result(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
