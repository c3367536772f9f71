package agent

import (
	"fmt"
	"math/rand/v2"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
)

// Agent is one party of an episode. OpenEpisode and CloseEpisode bracket
// every game; the flag is the episode tag ("player:environment" style) or
// the winner's name on close.
type Agent interface {
	engine.Party
	Name() string
	Config() *Config
	OpenEpisode(flag string)
	CloseEpisode(flag string)
}

// Mode is the player behavior selected by the agent name.
type Mode uint8

const (
	ModeTD     Mode = iota // 0: afterstate TD(0) learner
	ModeRandom             // 1: uniform over legal slides
	ModeGreedy             // 2: maximize immediate reward
)

// ModeOf maps a player name to its behavior. Unknown names learn.
func ModeOf(name string) Mode {
	switch name {
	case "dummy", "random":
		return ModeRandom
	case "greedy":
		return ModeGreedy
	}
	return ModeTD
}

// New builds the agent variant described by cfg.
func New(cfg Config) (Agent, error) {
	switch cfg.Role {
	case engine.RoleEnvironment:
		return NewEnvironment(cfg), nil
	case engine.RolePlayer:
		switch ModeOf(cfg.Name) {
		case ModeRandom:
			return NewRandomPlayer(cfg), nil
		case ModeGreedy:
			return NewGreedyPlayer(cfg), nil
		default:
			return NewTDLearning(cfg)
		}
	}
	return nil, fmt.Errorf("agent %q: unknown role %q", cfg.Name, cfg.Role)
}

// base carries the options and the agent's private random stream.
type base struct {
	cfg Config
	rng *rand.Rand
}

func newBase(cfg Config) base {
	seed := cfg.Seed
	if !cfg.HasSeed {
		seed = rand.Uint64()
	}
	return base{cfg: cfg, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (b *base) Name() string             { return b.cfg.Name }
func (b *base) Role() engine.Role        { return b.cfg.Role }
func (b *base) Config() *Config          { return &b.cfg }
func (b *base) OpenEpisode(flag string)  {}
func (b *base) CloseEpisode(flag string) {}

// randomLegal returns a uniformly chosen legal slide, or ActionNone.
func (b *base) randomLegal(view *engine.Board) engine.Action {
	var dirs [engine.NumDirections]engine.Direction
	n := 0
	for d, ok := range view.LegalDirections() {
		if ok {
			dirs[n] = engine.Direction(d)
			n++
		}
	}
	if n == 0 {
		return engine.Action{}
	}
	return engine.SlideAction(dirs[b.rng.IntN(n)])
}

// ---------------------------------------------------------------------------
// Players
// ---------------------------------------------------------------------------

// RandomPlayer slides uniformly among legal directions.
type RandomPlayer struct{ base }

// NewRandomPlayer returns a random player.
func NewRandomPlayer(cfg Config) *RandomPlayer {
	cfg.Role = engine.RolePlayer
	return &RandomPlayer{base: newBase(cfg)}
}

// TakeAction implements engine.Party.
func (p *RandomPlayer) TakeAction(view engine.Board, ctx engine.TurnContext) engine.Action {
	return p.randomLegal(&view)
}

// GreedyPlayer takes the slide with the largest immediate reward; the
// lowest direction wins ties.
type GreedyPlayer struct{ base }

// NewGreedyPlayer returns a greedy player.
func NewGreedyPlayer(cfg Config) *GreedyPlayer {
	cfg.Role = engine.RolePlayer
	return &GreedyPlayer{base: newBase(cfg)}
}

// TakeAction implements engine.Party.
func (p *GreedyPlayer) TakeAction(view engine.Board, ctx engine.TurnContext) engine.Action {
	best, bestReward := engine.DirNone, engine.Illegal
	for d := engine.DirUp; d <= engine.DirLeft; d++ {
		probe := view
		if r := probe.Slide(d); r > bestReward {
			best, bestReward = d, r
		}
	}
	if best == engine.DirNone {
		return engine.Action{}
	}
	return engine.SlideAction(best)
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// Environment places tiles with a TileGenerator fed by the agent's own
// random stream. The bag is refilled at the start of every episode.
type Environment struct {
	base
	gen *engine.TileGenerator
}

// NewEnvironment returns the tile-placing party. An unnamed environment is
// called "random".
func NewEnvironment(cfg Config) *Environment {
	cfg.Role = engine.RoleEnvironment
	if cfg.Name == "" || cfg.Name == DefaultConfig().Name {
		cfg.Name = "random"
	}
	e := &Environment{base: newBase(cfg)}
	e.gen = engine.NewTileGenerator(e.rng)
	return e
}

// Generator exposes the tile generator.
func (e *Environment) Generator() *engine.TileGenerator { return e.gen }

// OpenEpisode refills the bag.
func (e *Environment) OpenEpisode(flag string) { e.gen.Reset() }

// TakeAction places a tile on the edge opposite the player's last slide,
// or returns ActionNone when that edge is full.
func (e *Environment) TakeAction(view engine.Board, ctx engine.TurnContext) engine.Action {
	a, ok := e.gen.Choose(&view, ctx.LastSlide)
	if !ok {
		return engine.Action{}
	}
	return a
}
