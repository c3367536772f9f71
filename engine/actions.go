package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ActionKind tags the variant held by an Action.
type ActionKind uint8

const (
	ActionNone  ActionKind = iota // 0: no legal action; applying it is Illegal
	ActionSlide                   // 1
	ActionPlace                   // 2
)

// Action is either a slide in a direction or a placement of a tile index at a
// cell. The zero value is ActionNone.
type Action struct {
	Kind ActionKind
	Dir  Direction // ActionSlide
	Pos  uint8     // ActionPlace
	Tile uint8     // ActionPlace
}

// SlideAction returns a slide action.
func SlideAction(d Direction) Action { return Action{Kind: ActionSlide, Dir: d} }

// PlaceAction returns a placement action.
func PlaceAction(pos int, tile uint8) Action {
	return Action{Kind: ActionPlace, Pos: uint8(pos), Tile: tile}
}

// IsNone reports whether a carries no move.
func (a Action) IsNone() bool { return a.Kind == ActionNone }

// Apply performs the action on b and returns the reward or Illegal.
// Placements never score.
func (a Action) Apply(b *Board) int {
	switch a.Kind {
	case ActionSlide:
		return b.Slide(a.Dir)
	case ActionPlace:
		return b.Place(int(a.Pos), a.Tile)
	}
	return Illegal
}

// ---------------------------------------------------------------------------
// Text encoding used by the episode log.
//
//	slide: '#' followed by U, R, D or L          (e.g. "#L")
//	place: position digit then tile digit, base 16/36 (e.g. "01", "F3")
// ---------------------------------------------------------------------------

const (
	posDigits  = "0123456789ABCDEF"
	tileDigits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrMalformedAction is returned by ParseAction for text that is not an action.
var ErrMalformedAction = errors.New("malformed action")

// String returns the compact encoding. ActionNone encodes as "??".
func (a Action) String() string {
	switch a.Kind {
	case ActionSlide:
		return "#" + a.Dir.String()
	case ActionPlace:
		if int(a.Pos) < len(posDigits) && int(a.Tile) < len(tileDigits) {
			return string([]byte{posDigits[a.Pos], tileDigits[a.Tile]})
		}
	}
	return "??"
}

// ParseAction decodes the action at the front of s and returns the rest of s.
func ParseAction(s string) (Action, string, error) {
	if len(s) < 2 {
		return Action{}, s, fmt.Errorf("%w: %q", ErrMalformedAction, s)
	}
	if s[0] == '#' {
		d := strings.IndexByte(string(directionSymbols[:]), s[1])
		if d < 0 {
			return Action{}, s, fmt.Errorf("%w: unknown direction %q", ErrMalformedAction, s[1])
		}
		return SlideAction(Direction(d)), s[2:], nil
	}
	pos := strings.IndexByte(posDigits, s[0])
	tile := strings.IndexByte(tileDigits, s[1])
	if pos < 0 || tile < 0 {
		return Action{}, s, fmt.Errorf("%w: %q", ErrMalformedAction, s[:2])
	}
	return PlaceAction(pos, uint8(tile)), s[2:], nil
}
