package agent

import (
	"fmt"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
)

const (
	// DefaultAlpha is the learning rate, scaled down by the number of
	// tables that share every update.
	DefaultAlpha = 0.1 / NumPatterns

	// DefaultEpsilon is the initial probability of exploiting the value
	// function. It grows by EpsilonStep after every episode with no cap,
	// so a long run ends fully greedy.
	DefaultEpsilon = 0.0
	EpsilonStep    = 0.001

	// SentinelTerminal is the reward recorded for the move that lost the game.
	SentinelTerminal = engine.Illegal
)

// Trajectory holds one episode of the player's transitions between
// afterstates: States[i] is the afterstate of a move, Rewards[i] the reward
// of the next move and After[i] that next move's afterstate.
type Trajectory struct {
	States  []Features
	Rewards []int
	After   []Features
}

// Len returns the number of transitions.
func (t *Trajectory) Len() int { return len(t.States) }

// Append records one transition.
func (t *Trajectory) Append(state Features, reward int, after Features) {
	t.States = append(t.States, state)
	t.Rewards = append(t.Rewards, reward)
	t.After = append(t.After, after)
}

// Reset empties the trajectory, keeping its storage.
func (t *Trajectory) Reset() {
	t.States = t.States[:0]
	t.Rewards = t.Rewards[:0]
	t.After = t.After[:0]
}

// TDLearning is the afterstate TD(0) player over the n-tuple network.
type TDLearning struct {
	base
	weights *WeightStore
	epsilon float64

	traj    Trajectory
	prev    Features
	hasPrev bool
}

// NewTDLearning builds the learner, loading weights from cfg.LoadPath when
// set and otherwise allocating cfg.Capacity zeroed cells per table.
func NewTDLearning(cfg Config) (*TDLearning, error) {
	cfg.Role = engine.RolePlayer
	a := &TDLearning{base: newBase(cfg), epsilon: DefaultEpsilon}
	if cfg.LoadPath != "" {
		w, err := LoadWeightStore(cfg.LoadPath)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
		}
		a.weights = w
	} else {
		a.weights = NewWeightStore(cfg.Capacity)
	}
	return a, nil
}

// Weights returns the value function.
func (a *TDLearning) Weights() *WeightStore { return a.weights }

// Epsilon returns the current exploitation probability.
func (a *TDLearning) Epsilon() float64 { return a.epsilon }

// SetEpsilon overrides the exploitation probability.
func (a *TDLearning) SetEpsilon(eps float64) { a.epsilon = eps }

// Trajectory returns the transitions recorded in the current episode.
func (a *TDLearning) Trajectory() *Trajectory { return &a.traj }

// Evaluate returns the learned value of board b.
func (a *TDLearning) Evaluate(b *engine.Board) float32 {
	f := Encode(b)
	return a.weights.Value(&f)
}

// BestAction simulates every slide on a copy of view and returns the one
// maximizing reward + V(afterstate). The first maximum wins ties. ok is
// false when no slide is legal.
func (a *TDLearning) BestAction(view engine.Board) (act engine.Action, value float32, ok bool) {
	for d := engine.DirUp; d <= engine.DirLeft; d++ {
		after := view
		r := after.Slide(d)
		if r == engine.Illegal {
			continue
		}
		v := float32(r) + a.Evaluate(&after)
		if !ok || v > value {
			act, value, ok = engine.SlideAction(d), v, true
		}
	}
	return act, value, ok
}

// TakeAction exploits with probability Epsilon, otherwise picks a uniform
// legal slide. Returns ActionNone when no slide is legal.
func (a *TDLearning) TakeAction(view engine.Board, ctx engine.TurnContext) engine.Action {
	if a.rng.Float64() < a.epsilon {
		act, _, _ := a.BestAction(view)
		return act
	}
	return a.randomLegal(&view)
}

// Observe records the afterstate chain. The first slide of an episode only
// seeds the chain; each later slide (including the losing attempt, whose
// reward is SentinelTerminal) appends one transition.
func (a *TDLearning) Observe(act engine.Action, reward int, after engine.Board) {
	f := Encode(&after)
	if !a.hasPrev {
		a.prev, a.hasPrev = f, true
		return
	}
	a.traj.Append(a.prev, reward, f)
	a.prev = f
}

// OpenEpisode clears the trajectory.
func (a *TDLearning) OpenEpisode(flag string) {
	a.traj.Reset()
	a.hasPrev = false
}

// CloseEpisode runs the TD update over the finished episode and advances
// Epsilon.
func (a *TDLearning) CloseEpisode(flag string) {
	a.Update(&a.traj)
	a.epsilon += EpsilonStep
}

// Update applies TD(0) from the last transition back to the first. Each
// delta is computed with the weights already updated by the later ones.
// Nothing happens in evaluation mode.
func (a *TDLearning) Update(t *Trajectory) {
	if !a.cfg.Train {
		return
	}
	alpha := a.cfg.Alpha
	for i := t.Len() - 1; i >= 0; i-- {
		v := a.weights.Value(&t.States[i])
		var delta float32
		if t.Rewards[i] == SentinelTerminal {
			delta = alpha * (0 - v)
		} else {
			delta = alpha * (float32(t.Rewards[i]) + a.weights.Value(&t.After[i]) - v)
		}
		a.weights.Accumulate(&t.States[i], delta)
	}
}
