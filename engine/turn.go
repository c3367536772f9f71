package engine

// OpeningPlacements is the number of environment-only half-turns that seed
// the board before the player's first slide.
const OpeningPlacements = 9

// PhaseAt returns the phase of the half-turn that follows step recorded
// moves. The opening is followed by strict alternation, player first.
func PhaseAt(step int) Phase {
	if step < OpeningPlacements {
		return PhaseOpening
	}
	if (step-OpeningPlacements)%2 == 0 {
		return PhasePlayer
	}
	return PhaseEnvironment
}

// roleOf maps a non-terminal phase to the party that acts in it.
func roleOf(p Phase) Role {
	if p == PhasePlayer {
		return RolePlayer
	}
	return RoleEnvironment
}

// TurnContext is what a party sees besides the board when asked to act.
type TurnContext struct {
	Step      int       // moves recorded so far
	Phase     Phase     // phase of this half-turn
	LastSlide Direction // player's last slide, DirNone during the opening
}

// Party is one side of a game: the player slides, the environment places.
type Party interface {
	Role() Role
	TakeAction(view Board, ctx TurnContext) Action
}

// Observer is implemented by parties that want the outcome of their own
// actions: the applied action, its reward (Illegal when it ended the game)
// and the board right after it.
type Observer interface {
	Observe(a Action, reward int, after Board)
}

// Move is one recorded half-turn.
type Move struct {
	Action Action
	Reward int
	Role   Role
}

// TurnEngine runs one episode: it asks the active party for an action,
// applies it to the board and decides whose turn is next. A party with no
// legal action (or whose action is illegal) ends the game and the other
// party wins.
type TurnEngine struct {
	board     Board
	player    Party
	env       Party
	moves     []Move
	score     int
	lastSlide Direction
	over      bool
	winner    Role
}

// NewTurnEngine returns an engine on an empty board.
func NewTurnEngine(player, env Party) *TurnEngine {
	return &TurnEngine{player: player, env: env, lastSlide: DirNone}
}

// Board returns a copy of the current board.
func (t *TurnEngine) Board() Board { return t.board }

// Moves returns the recorded legal moves in order.
func (t *TurnEngine) Moves() []Move { return t.moves }

// Score returns the sum of rewards of all recorded moves.
func (t *TurnEngine) Score() int { return t.score }

// IsTerminal reports whether the game is over.
func (t *TurnEngine) IsTerminal() bool { return t.over }

// Winner returns the winning role, RoleNone while the game is running.
func (t *TurnEngine) Winner() Role { return t.winner }

// Phase returns the phase of the next half-turn.
func (t *TurnEngine) Phase() Phase {
	if t.over {
		return PhaseTerminal
	}
	return PhaseAt(len(t.moves))
}

// Active returns the party that acts next, nil once the game is over.
func (t *TurnEngine) Active() Party {
	switch t.Phase() {
	case PhaseTerminal:
		return nil
	case PhasePlayer:
		return t.player
	}
	return t.env
}

// Step plays one half-turn. It returns the attempted move and whether the
// game continues. The losing attempt is returned but not recorded.
func (t *TurnEngine) Step() (Move, bool) {
	if t.over {
		return Move{}, false
	}
	phase := t.Phase()
	party := t.Active()
	ctx := TurnContext{Step: len(t.moves), Phase: phase, LastSlide: t.lastSlide}

	a := party.TakeAction(t.board, ctx)
	reward := a.Apply(&t.board)
	m := Move{Action: a, Reward: reward, Role: roleOf(phase)}

	if obs, ok := party.(Observer); ok {
		obs.Observe(a, reward, t.board)
	}

	if reward == Illegal {
		t.over = true
		if m.Role == RolePlayer {
			t.winner = RoleEnvironment
		} else {
			t.winner = RolePlayer
		}
		return m, false
	}

	if a.Kind == ActionSlide {
		t.lastSlide = a.Dir
	}
	t.moves = append(t.moves, m)
	t.score += reward
	return m, true
}

// Run steps until the game is over and returns the winner.
func (t *TurnEngine) Run() Role {
	for {
		if _, ok := t.Step(); !ok {
			return t.winner
		}
	}
}
