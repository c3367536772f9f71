// internal/stats/episode.go
package stats

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
	"github.com/google/uuid"
)

// ErrMalformedEpisode is returned when an episode line cannot be parsed.
var ErrMalformedEpisode = errors.New("malformed episode")

// nowMillis is the clock used for open/close marks and per-move time usage.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// Record is one applied half-turn with its reward and time usage in milliseconds.
type Record struct {
	Action engine.Action
	Reward int
	Millis int64
}

// Mark is an open or close flag stamped with a unix time in milliseconds.
type Mark struct {
	Flag string
	At   int64
}

// Episode is the container of actions and time usages of one game. It keeps
// its own copy of the board so a saved line can be replayed without agents.
type Episode struct {
	ID uuid.UUID

	board     engine.Board
	score     int
	moves     []Record
	open      Mark
	close     Mark
	turnStart int64
}

// NewEpisode returns an empty episode with a fresh ID.
func NewEpisode() *Episode {
	ep := &Episode{}
	ep.Clear()
	return ep
}

// Clear resets the episode to an empty board and N/A flags.
func (e *Episode) Clear() {
	e.ID = uuid.New()
	e.board = engine.Board{}
	e.score = 0
	e.moves = e.moves[:0]
	e.open = Mark{Flag: "N/A"}
	e.close = Mark{Flag: "N/A"}
	e.turnStart = 0
}

func (e *Episode) Board() engine.Board { return e.board }
func (e *Episode) Score() int          { return e.score }
func (e *Episode) Moves() []Record     { return e.moves }
func (e *Episode) OpenMark() Mark      { return e.open }
func (e *Episode) CloseMark() Mark     { return e.close }

// MaxTile returns the largest tile index on the board.
func (e *Episode) MaxTile() uint8 { return e.board.MaxTile() }

// Open stamps the open flag.
func (e *Episode) Open(flag string) { e.open = Mark{Flag: flag, At: nowMillis()} }

// Close stamps the close flag.
func (e *Episode) Close(flag string) { e.close = Mark{Flag: flag, At: nowMillis()} }

// StartTurn starts the clock of the next half-turn.
func (e *Episode) StartTurn() { e.turnStart = nowMillis() }

// Apply performs a on the episode board. Illegal actions are not recorded
// and report ok == false.
func (e *Episode) Apply(a engine.Action) (ok bool, reward int) {
	reward = a.Apply(&e.board)
	if reward == engine.Illegal {
		return false, reward
	}
	e.moves = append(e.moves, Record{Action: a, Reward: reward, Millis: nowMillis() - e.turnStart})
	e.score += reward
	return true, reward
}

// Step returns the number of recorded moves of the given kind, or all of
// them for ActionNone.
func (e *Episode) Step(kind engine.ActionKind) int {
	if kind == engine.ActionNone {
		return len(e.moves)
	}
	n := 0
	for _, m := range e.moves {
		if m.Action.Kind == kind {
			n++
		}
	}
	return n
}

// Time returns the time usage of the given kind of move in milliseconds.
// For ActionNone it is the wall time between open and close.
func (e *Episode) Time(kind engine.ActionKind) int64 {
	if kind == engine.ActionNone || len(e.moves) == 0 {
		return e.close.At - e.open.At
	}
	var sum int64
	for _, m := range e.moves {
		if m.Action.Kind == kind {
			sum += m.Millis
		}
	}
	return sum
}

// Actions returns the recorded actions of the given kind, or all of them
// for ActionNone.
func (e *Episode) Actions(kind engine.ActionKind) []engine.Action {
	out := make([]engine.Action, 0, len(e.moves))
	for _, m := range e.moves {
		if kind == engine.ActionNone || m.Action.Kind == kind {
			out = append(out, m.Action)
		}
	}
	return out
}

// String serializes the episode as "open@t|moves|close@t". Each move is
// its action code followed by "[reward]" and "(millis)" when non-zero.
func (e *Episode) String() string {
	var sb strings.Builder
	sb.WriteString(e.open.Flag)
	sb.WriteByte('@')
	sb.WriteString(strconv.FormatInt(e.open.At, 10))
	sb.WriteByte('|')
	for _, m := range e.moves {
		sb.WriteString(m.Action.String())
		if m.Reward != 0 {
			fmt.Fprintf(&sb, "[%d]", m.Reward)
		}
		if m.Millis != 0 {
			fmt.Fprintf(&sb, "(%d)", m.Millis)
		}
	}
	sb.WriteByte('|')
	sb.WriteString(e.close.Flag)
	sb.WriteByte('@')
	sb.WriteString(strconv.FormatInt(e.close.At, 10))
	return sb.String()
}

// Parse replaces the episode with the one encoded in line, replaying every
// action on an empty board to rebuild the state and score. On error the
// episode is left cleared.
func (e *Episode) Parse(line string) error {
	e.Clear()
	line = strings.TrimRight(line, "\r\n")

	openPart, rest, ok := strings.Cut(line, "|")
	if !ok {
		return fmt.Errorf("%w: missing move section", ErrMalformedEpisode)
	}
	movesPart, closePart, ok := strings.Cut(rest, "|")
	if !ok {
		return fmt.Errorf("%w: missing close section", ErrMalformedEpisode)
	}

	open, err := parseMark(openPart)
	if err != nil {
		return err
	}
	closeMark, err := parseMark(closePart)
	if err != nil {
		return err
	}

	var board engine.Board
	var moves []Record
	score := 0
	for s := movesPart; s != ""; {
		a, tail, err := engine.ParseAction(s)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedEpisode, err)
		}
		applied := a.Apply(&board)
		if applied == engine.Illegal {
			return fmt.Errorf("%w: illegal action %s", ErrMalformedEpisode, a)
		}
		score += applied

		var rec Record
		rec.Action = a
		var r int64
		if r, tail, err = optionalValue(tail, '[', ']'); err != nil {
			return err
		}
		rec.Reward = int(r)
		if rec.Millis, tail, err = optionalValue(tail, '(', ')'); err != nil {
			return err
		}
		moves = append(moves, rec)
		s = tail
	}

	e.board, e.score, e.moves = board, score, moves
	e.open, e.close = open, closeMark
	return nil
}

func parseMark(s string) (Mark, error) {
	i := strings.LastIndexByte(s, '@')
	if i < 0 {
		return Mark{}, fmt.Errorf("%w: flag %q has no time", ErrMalformedEpisode, s)
	}
	at, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return Mark{}, fmt.Errorf("%w: flag %q: %w", ErrMalformedEpisode, s, err)
	}
	return Mark{Flag: s[:i], At: at}, nil
}

// optionalValue reads "<open>int<close>" from the front of s, or returns 0
// when s does not start with open.
func optionalValue(s string, open, close byte) (int64, string, error) {
	if s == "" || s[0] != open {
		return 0, s, nil
	}
	end := strings.IndexByte(s, close)
	if end < 0 {
		return 0, s, fmt.Errorf("%w: unterminated %c", ErrMalformedEpisode, open)
	}
	v, err := strconv.ParseInt(s[1:end], 10, 64)
	if err != nil {
		return 0, s, fmt.Errorf("%w: %w", ErrMalformedEpisode, err)
	}
	return v, s[end+1:], nil
}

// ReadEpisodes parses one episode per non-empty line.
func ReadEpisodes(sc *bufio.Scanner) ([]*Episode, error) {
	var out []*Episode
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ep := NewEpisode()
		if err := ep.Parse(line); err != nil {
			return out, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, ep)
	}
	return out, sc.Err()
}
