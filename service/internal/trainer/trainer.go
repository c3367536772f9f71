// internal/trainer/trainer.go
package trainer

import (
	"context"
	"fmt"
	"sync"
	"time"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
	"github.com/eric0410771/Game-Theory-Threes/engine/agent"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/cache"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/checkpoint"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/database"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/monitor"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/stats"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// epochLogEvery is how often (in episodes) the loop logs its progress.
const epochLogEvery = 50

// publishTimeout bounds each asynchronous Redis or database write.
const publishTimeout = 2 * time.Second

// Broadcaster receives live events. *monitor.Hub implements it.
type Broadcaster interface {
	Broadcast(ev monitor.Event)
}

// OnBlockFunc is called synchronously with every block summary.
type OnBlockFunc func(sum stats.BlockSummary)

// Trainer plays a player agent against an environment agent until the
// statistic is finished, recording every episode and updating the player
// after each one.
type Trainer struct {
	ID uuid.UUID

	player agent.Agent
	env    agent.Agent
	stat   *stats.Statistic
	log    *logrus.Entry

	Broadcaster Broadcaster // nil disables the live feed
	OnBlock     OnBlockFunc // nil disables the callback

	epoch int
	wg    sync.WaitGroup
}

// Result describes a finished run.
type Result struct {
	RunID       uuid.UUID
	Episodes    int
	WeightsPath string
	WeightsHash string
	Summary     stats.BlockSummary
}

// New returns a trainer for the given parties and statistic.
func New(player, env agent.Agent, stat *stats.Statistic, log *logrus.Entry) (*Trainer, error) {
	if player == nil || player.Role() != engine.RolePlayer {
		return nil, fmt.Errorf("trainer: player agent required")
	}
	if env == nil || env.Role() != engine.RoleEnvironment {
		return nil, fmt.Errorf("trainer: environment agent required")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	id := uuid.New()
	return &Trainer{
		ID:     id,
		player: player,
		env:    env,
		stat:   stat,
		log:    log.WithField("run", id),
	}, nil
}

// Statistic returns the run statistic.
func (t *Trainer) Statistic() *stats.Statistic { return t.stat }

// Run plays episodes until the statistic is finished or ctx is cancelled,
// then saves the player's weights. Pending publishes are awaited.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	defer t.wg.Wait()

	t.recordStart(ctx)
	t.broadcast(monitor.EventRunStart, map[string]interface{}{
		"player":      t.player.Name(),
		"environment": t.env.Name(),
		"total":       t.stat.Total(),
	})

	for !t.stat.IsFinished() {
		if err := ctx.Err(); err != nil {
			t.log.WithField("episodes", t.stat.Count()).Warn("Training interrupted.")
			break
		}
		t.PlayEpisode()
	}

	res := Result{RunID: t.ID, Episodes: t.stat.Count(), Summary: t.stat.Summary()}
	if err := t.savePlayer(&res); err != nil {
		return res, err
	}
	t.recordFinish(ctx, res)
	t.broadcast(monitor.EventRunFinish, res)
	return res, ctx.Err()
}

// PlayEpisode runs one full episode and returns it.
func (t *Trainer) PlayEpisode() *stats.Episode {
	t.epoch++
	if t.epoch%epochLogEvery == 0 {
		t.log.WithField("epoch", t.epoch).Info("Current epoch.")
	}

	t.player.OpenEpisode("~:" + t.env.Name())
	t.env.OpenEpisode(t.player.Name() + ":~")
	ep := t.stat.OpenEpisode(t.player.Name() + ":" + t.env.Name())

	game := engine.NewTurnEngine(t.player, t.env)
	for {
		ep.StartTurn()
		m, ok := game.Step()
		if !ok {
			break
		}
		if applied, _ := ep.Apply(m.Action); !applied {
			t.log.WithField("action", m.Action.String()).Error("Episode rejected an action the engine accepted.")
			break
		}
	}

	winner := t.env
	if game.Winner() == engine.RolePlayer {
		winner = t.player
	}
	sum := t.stat.CloseEpisode(winner.Name())
	t.player.CloseEpisode(winner.Name())
	t.env.CloseEpisode(winner.Name())

	t.publishEpisode(ep, winner.Name())
	if sum != nil {
		t.closeBlock(*sum)
	}
	return ep
}

// epsilon reports the player's exploitation rate when it has one.
func (t *Trainer) epsilon() float64 {
	if td, ok := t.player.(*agent.TDLearning); ok {
		return td.Epsilon()
	}
	return 0
}

func (t *Trainer) closeBlock(sum stats.BlockSummary) {
	fields := logrus.Fields{
		"count": sum.Count,
		"avg":   fmt.Sprintf("%.0f", sum.Average),
		"max":   sum.Max,
		"ops":   fmt.Sprintf("%.0f", sum.Ops),
	}
	if len(sum.Tiles) > 0 {
		fields["best"] = sum.Tiles[len(sum.Tiles)-1].Tile
	}
	t.log.WithFields(fields).Info("Block finished.")

	if t.OnBlock != nil {
		t.OnBlock(sum)
	}
	t.broadcast(monitor.EventBlockSummary, sum)
	t.async(func(ctx context.Context) error {
		if database.DB == nil {
			return nil
		}
		return database.InsertBlock(ctx, t.ID, sum)
	})
}

func (t *Trainer) publishEpisode(ep *stats.Episode, winner string) {
	rec := cache.EpisodeRecord{
		RunID:     t.ID,
		EpisodeID: ep.ID,
		Index:     t.stat.Count(),
		Winner:    winner,
		Score:     ep.Score(),
		MaxTile:   engine.TileValue(ep.MaxTile()),
		Steps:     ep.Step(engine.ActionNone),
		Epsilon:   t.epsilon(),
		Timestamp: time.Now().UnixMilli(),
	}
	t.broadcast(monitor.EventEpisodeClose, rec)
	if cache.Rdb == nil {
		return
	}
	rec.Line = ep.String()
	t.async(func(ctx context.Context) error {
		return cache.PublishEpisode(ctx, rec)
	})
}

func (t *Trainer) recordStart(ctx context.Context) {
	if database.DB == nil {
		return
	}
	run := database.Run{
		ID:         t.ID,
		PlayerOpts: optionString(t.player.Config()),
		EnvOpts:    optionString(t.env.Config()),
		Total:      t.stat.Total(),
		Block:      t.stat.Block(),
		StartedAt:  time.Now(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := database.InsertRun(ctx, run); err != nil {
		t.log.WithError(err).Error("Failed recording run start.")
	}
}

func (t *Trainer) recordFinish(ctx context.Context, res Result) {
	if database.DB == nil {
		return
	}
	t.wg.Wait()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := database.FinishRun(ctx, t.ID, database.Finish{
		FinishedAt:  time.Now(),
		Episodes:    res.Episodes,
		WeightsPath: res.WeightsPath,
		WeightsHash: res.WeightsHash,
	})
	if err != nil {
		t.log.WithError(err).Error("Failed recording run finish.")
	}
}

// savePlayer checkpoints a learning player's weights to its save path.
func (t *Trainer) savePlayer(res *Result) error {
	td, ok := t.player.(*agent.TDLearning)
	if !ok {
		return nil
	}
	path := td.Config().SavePath
	if path == "" {
		return nil
	}
	sum, err := checkpoint.Save(path, td.Weights())
	if err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	res.WeightsPath, res.WeightsHash = path, sum
	t.log.WithFields(logrus.Fields{"path": path, "blake2b": sum}).Info("Weights saved.")
	return nil
}

func (t *Trainer) broadcast(typ monitor.EventType, payload interface{}) {
	if t.Broadcaster == nil {
		return
	}
	t.Broadcaster.Broadcast(monitor.Event{Type: typ, RunID: t.ID, Payload: payload})
}

// async runs fn off the training loop with a short timeout and logs its error.
func (t *Trainer) async(fn func(ctx context.Context) error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			t.log.WithError(err).Error("Failed publishing run progress.")
		}
	}()
}

// optionString renders the recognized options of an agent.
func optionString(cfg *agent.Config) string {
	out := ""
	for _, key := range []string{agent.KeyName, agent.KeyRole, agent.KeySeed, agent.KeyAlpha, agent.KeyCapacity, agent.KeyLoad, agent.KeySave, agent.KeyTrain} {
		v, ok := cfg.Property(key)
		if !ok {
			continue
		}
		if out != "" {
			out += " "
		}
		out += key + "=" + v
	}
	return out
}
