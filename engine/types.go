package engine

// Direction is a slide direction. The numeric values match the opcode
// order used in the episode log (U, R, D, L).
type Direction int8

const (
	DirUp    Direction = 0
	DirRight Direction = 1
	DirDown  Direction = 2
	DirLeft  Direction = 3

	// DirNone marks "no previous slide" (the opening placements).
	DirNone Direction = -1

	NumDirections = 4
)

// directionSymbols is indexed by Direction.
var directionSymbols = [NumDirections]byte{'U', 'R', 'D', 'L'}

// Valid reports whether d is one of the four real slide directions.
func (d Direction) Valid() bool { return d >= DirUp && d <= DirLeft }

// String returns the single-letter name used by the action encoding.
func (d Direction) String() string {
	if !d.Valid() {
		return "?"
	}
	return string(directionSymbols[d])
}

// Illegal is the sentinel reward returned by Slide, Place and Action.Apply
// when the move does not change the board or targets an invalid cell/tile.
const Illegal = -1

// Role identifies which party of a game acts on a half-turn.
type Role uint8

const (
	RoleNone        Role = iota // 0
	RolePlayer                  // 1: slides
	RoleEnvironment             // 2: places tiles
)

// String returns the role name used by agent options ("role=player").
func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleEnvironment:
		return "environment"
	}
	return "unknown"
}

// ParseRole maps an option value to a Role. Unknown values map to RoleNone.
func ParseRole(s string) Role {
	switch s {
	case "player":
		return RolePlayer
	case "environment", "evil":
		return RoleEnvironment
	}
	return RoleNone
}

// Phase is the state of the turn engine.
type Phase uint8

const (
	PhaseOpening     Phase = iota // 0: environment-only placements
	PhasePlayer                   // 1: player slides
	PhaseEnvironment              // 2: environment places
	PhaseTerminal                 // 3: game over
)

// String returns a short phase name for logs.
func (p Phase) String() string {
	switch p {
	case PhaseOpening:
		return "opening"
	case PhasePlayer:
		return "player"
	case PhaseEnvironment:
		return "environment"
	case PhaseTerminal:
		return "terminal"
	}
	return "unknown"
}
