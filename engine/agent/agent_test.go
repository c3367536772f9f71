package agent

import (
	"testing"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
)

func mustConfig(t *testing.T, opts string) Config {
	t.Helper()
	cfg, err := ParseOptions(opts)
	if err != nil {
		t.Fatalf("ParseOptions(%q): %v", opts, err)
	}
	return cfg
}

func deadBoard() engine.Board {
	var b engine.Board
	for i := range b {
		b[i] = 1
	}
	return b
}

// TestNewSelectsVariant checks the configuration-driven factory.
func TestNewSelectsVariant(t *testing.T) {
	tests := []struct {
		opts string
		want string
	}{
		{"name=random role=environment", "*agent.Environment"},
		{"name=dummy role=player", "*agent.RandomPlayer"},
		{"name=greedy role=player", "*agent.GreedyPlayer"},
		{"name=td role=player init=16", "*agent.TDLearning"},
	}
	for _, tt := range tests {
		a, err := New(mustConfig(t, tt.opts))
		if err != nil {
			t.Fatalf("New(%q): %v", tt.opts, err)
		}
		var got string
		switch a.(type) {
		case *Environment:
			got = "*agent.Environment"
		case *RandomPlayer:
			got = "*agent.RandomPlayer"
		case *GreedyPlayer:
			got = "*agent.GreedyPlayer"
		case *TDLearning:
			got = "*agent.TDLearning"
		}
		if got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.opts, got, tt.want)
		}
	}
	if _, err := New(mustConfig(t, "name=x")); err == nil {
		t.Error("New without a role should fail")
	}
}

// TestGreedyPlayer picks the largest immediate reward.
func TestGreedyPlayer(t *testing.T) {
	p := NewGreedyPlayer(mustConfig(t, "name=greedy"))
	var b engine.Board
	b[0], b[1] = 1, 2 // 1+2 → 3 going left
	b[4], b[5] = 3, 3 // 3+3 → 4 going left
	a := p.TakeAction(b, engine.TurnContext{})
	if a != engine.SlideAction(engine.DirLeft) {
		t.Errorf("greedy = %s, want #L", a)
	}
	if a := p.TakeAction(deadBoard(), engine.TurnContext{}); !a.IsNone() {
		t.Errorf("greedy on dead board = %s, want none", a)
	}
}

// TestRandomPlayerLegal checks random moves are always legal.
func TestRandomPlayerLegal(t *testing.T) {
	p := NewRandomPlayer(mustConfig(t, "name=dummy seed=3"))
	var b engine.Board
	b[0], b[1] = 1, 2 // up is illegal
	for i := 0; i < 50; i++ {
		a := p.TakeAction(b, engine.TurnContext{})
		if a.Kind != engine.ActionSlide || a.Dir == engine.DirUp {
			t.Fatalf("random = %+v, want a legal slide", a)
		}
	}
	if a := p.TakeAction(deadBoard(), engine.TurnContext{}); !a.IsNone() {
		t.Errorf("random on dead board = %s, want none", a)
	}
}

// TestEnvironment checks placements follow the last slide and seeds replay.
func TestEnvironment(t *testing.T) {
	e1 := NewEnvironment(mustConfig(t, "seed=11"))
	e2 := NewEnvironment(mustConfig(t, "seed=11"))
	if e1.Role() != engine.RoleEnvironment {
		t.Errorf("Role = %s", e1.Role())
	}
	if e1.Name() != "random" {
		t.Errorf("Name = %q, want the default %q", e1.Name(), "random")
	}
	if named := NewEnvironment(mustConfig(t, "name=evil")); named.Name() != "evil" {
		t.Errorf("Name = %q, want %q", named.Name(), "evil")
	}
	var b engine.Board
	ctx := engine.TurnContext{LastSlide: engine.DirLeft}
	for i := 0; i < 6; i++ {
		a1 := e1.TakeAction(b, ctx)
		a2 := e2.TakeAction(b, ctx)
		if a1 != a2 {
			t.Fatalf("same seed diverged at %d: %s vs %s", i, a1, a2)
		}
		if a1.Pos%4 != 3 {
			t.Errorf("placement %s not on the right column", a1)
		}
	}
	e1.Generator().Bag().Draw(fixedFirst{})
	e1.OpenEpisode("")
	if e1.Generator().Bag().Len() != 3 {
		t.Error("OpenEpisode should refill the bag")
	}
	full := deadBoard()
	if a := e1.TakeAction(full, ctx); !a.IsNone() {
		t.Errorf("environment on full board = %s, want none", a)
	}
}

type fixedFirst struct{}

func (fixedFirst) IntN(int) int { return 0 }
