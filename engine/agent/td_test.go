package agent

import (
	"path/filepath"
	"strconv"
	"testing"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
)

func uniformFeatures(idx uint32) Features {
	var f Features
	for i := range f {
		f[i] = idx
	}
	return f
}

func newTD(t *testing.T, opts string) *TDLearning {
	t.Helper()
	a, err := NewTDLearning(mustConfig(t, opts))
	if err != nil {
		t.Fatalf("NewTDLearning(%q): %v", opts, err)
	}
	return a
}

// TestUpdateBackward checks later transitions are updated first, so the
// first state already sees the bootstrapped value of the second.
func TestUpdateBackward(t *testing.T) {
	a := newTD(t, "name=td alpha=0.5 init=16")
	s0, s1, s2 := uniformFeatures(1), uniformFeatures(2), uniformFeatures(3)

	var traj Trajectory
	traj.Append(s0, 3, s1)
	traj.Append(s1, 6, s2)
	a.Update(&traj)

	w := a.Weights()
	if got := w.Value(&s1); got != 93 {
		t.Errorf("V(s1) = %v, want 93", got)
	}
	if got := w.Value(&s0); got != 1488 {
		t.Errorf("V(s0) = %v, want 1488", got)
	}
	if got := w.Value(&s2); got != 0 {
		t.Errorf("V(s2) = %v, want 0", got)
	}
}

// TestUpdateTerminal pulls the losing state towards zero.
func TestUpdateTerminal(t *testing.T) {
	a := newTD(t, "name=td alpha=0.5 init=16")
	s := uniformFeatures(4)
	a.Weights().Accumulate(&s, 1)

	var traj Trajectory
	traj.Append(s, SentinelTerminal, s)
	a.Update(&traj)

	if got := a.Weights().Value(&s); got != -449.5 {
		t.Errorf("V(s) = %v, want -449.5", got)
	}
}

// TestUpdateEvaluationMode leaves the weights untouched.
func TestUpdateEvaluationMode(t *testing.T) {
	a := newTD(t, "name=td alpha=0.5 init=16 test")
	s0, s1 := uniformFeatures(1), uniformFeatures(2)
	var traj Trajectory
	traj.Append(s0, 3, s1)
	a.Update(&traj)
	if got := a.Weights().Value(&s0); got != 0 {
		t.Errorf("V(s0) = %v after evaluation-only update, want 0", got)
	}
}

// TestObserveChain verifies the afterstate chain and the losing sentinel.
func TestObserveChain(t *testing.T) {
	a := newTD(t, "name=td init=16")
	a.OpenEpisode("")

	var b1, b2 engine.Board
	b1[0] = 3
	b2[0], b2[1] = 3, 3

	a.Observe(engine.SlideAction(engine.DirLeft), 0, b1)
	if a.Trajectory().Len() != 0 {
		t.Fatalf("first slide should only seed the chain")
	}
	a.Observe(engine.SlideAction(engine.DirUp), 9, b2)
	a.Observe(engine.Action{}, SentinelTerminal, b2)

	traj := a.Trajectory()
	if traj.Len() != 2 {
		t.Fatalf("Len = %d, want 2", traj.Len())
	}
	f1, f2 := Encode(&b1), Encode(&b2)
	if traj.States[0] != f1 || traj.After[0] != f2 || traj.Rewards[0] != 9 {
		t.Errorf("transition 0 = (%v, %d, %v)", traj.States[0][0], traj.Rewards[0], traj.After[0][0])
	}
	if traj.States[1] != f2 || traj.Rewards[1] != SentinelTerminal {
		t.Errorf("transition 1 reward = %d, want %d", traj.Rewards[1], SentinelTerminal)
	}

	a.OpenEpisode("")
	if a.Trajectory().Len() != 0 {
		t.Error("OpenEpisode should clear the trajectory")
	}
}

// TestBestActionTieBreak picks the lowest direction among equal values.
func TestBestActionTieBreak(t *testing.T) {
	a := newTD(t, "name=td init=16")
	var b engine.Board
	b[5] = 1
	act, v, ok := a.BestAction(b)
	if !ok || act != engine.SlideAction(engine.DirUp) || v != 0 {
		t.Errorf("BestAction = %s %v %v, want #U 0 true", act, v, ok)
	}

	var dead engine.Board
	for i := range dead {
		dead[i] = 1
	}
	if _, _, ok := a.BestAction(dead); ok {
		t.Error("BestAction on a dead board should report no move")
	}
}

// TestBestActionValue prefers a lower reward with a better afterstate.
func TestBestActionValue(t *testing.T) {
	a := newTD(t, "name=td init=4096")
	var b engine.Board
	b[0], b[1] = 1, 2

	right := b
	right.Slide(engine.DirRight)
	f := Encode(&right)
	w := a.Weights()
	w.Table(0)[f[0]%uint32(w.Capacity())] = 100

	act, _, _ := a.BestAction(b)
	if act != engine.SlideAction(engine.DirRight) {
		t.Errorf("BestAction = %s, want #R", act)
	}
}

// TestTakeActionExploits follows the value function once epsilon is one.
func TestTakeActionExploits(t *testing.T) {
	a := newTD(t, "name=td init=16 seed=5")
	a.SetEpsilon(1)
	var b engine.Board
	b[5] = 1
	for i := 0; i < 20; i++ {
		if act := a.TakeAction(b, engine.TurnContext{}); act != engine.SlideAction(engine.DirUp) {
			t.Fatalf("TakeAction = %s, want #U", act)
		}
	}
}

// TestEpsilonSchedule grows epsilon once per closed episode.
func TestEpsilonSchedule(t *testing.T) {
	a := newTD(t, "name=td init=16")
	if a.Epsilon() != DefaultEpsilon {
		t.Fatalf("initial epsilon = %v", a.Epsilon())
	}
	for i := 0; i < 5; i++ {
		a.OpenEpisode("")
		a.CloseEpisode("")
	}
	if got, want := a.Epsilon(), 5*EpsilonStep; got < want-1e-12 || got > want+1e-12 {
		t.Errorf("epsilon = %v, want %v", got, want)
	}
}

// TestLoadOption starts a learner from a saved weight file.
func TestLoadOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")
	a := newTD(t, "name=td init=32")
	s := uniformFeatures(7)
	a.Weights().Accumulate(&s, 0.25)
	writeStoreFile(t, a.Weights(), path)

	b := newTD(t, "name=td load="+path)
	if b.Weights().Capacity() != 32 {
		t.Fatalf("Capacity = %d, want 32", b.Weights().Capacity())
	}
	sameBits(t, a.Weights(), b.Weights())

	if _, err := NewTDLearning(mustConfig(t, "name=td load="+filepath.Join(t.TempDir(), "missing.bin"))); err == nil {
		t.Error("loading a missing file should fail")
	}
}

// TestEpisodeTrajectory plays full games and checks one transition is
// recorded per player slide, the last one being the loss.
func TestEpisodeTrajectory(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		player := newTD(t, "name=td init=64 alpha=0.01 seed="+strconv.FormatUint(seed, 10))
		env := NewEnvironment(mustConfig(t, "seed="+strconv.FormatUint(seed+100, 10)))
		player.OpenEpisode("")
		env.OpenEpisode("")

		te := engine.NewTurnEngine(player, env)
		if winner := te.Run(); winner != engine.RoleEnvironment {
			t.Fatalf("seed %d: winner = %s, want environment", seed, winner)
		}
		slides := 0
		for _, m := range te.Moves() {
			if m.Role == engine.RolePlayer {
				slides++
			}
		}
		traj := player.Trajectory()
		if traj.Len() != slides {
			t.Errorf("seed %d: Len = %d, want %d", seed, traj.Len(), slides)
		}
		if slides > 0 && traj.Rewards[traj.Len()-1] != SentinelTerminal {
			t.Errorf("seed %d: last reward = %d, want %d", seed, traj.Rewards[traj.Len()-1], SentinelTerminal)
		}
		player.CloseEpisode("")
	}
}
