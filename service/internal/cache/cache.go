// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. It stays nil when no address is configured,
// in which case callers skip publishing.
var Rdb *redis.Client

// StreamMaxLen caps every run stream (approximate trimming).
const StreamMaxLen = 100000

// EpisodeRecord is the per-episode entry appended to a run's stream.
type EpisodeRecord struct {
	RunID     uuid.UUID `json:"runId"`
	EpisodeID uuid.UUID `json:"episodeId"`
	Index     int       `json:"index"`
	Winner    string    `json:"winner"`
	Score     int       `json:"score"`
	MaxTile   int       `json:"maxTile"`
	Steps     int       `json:"steps"`
	Epsilon   float64   `json:"epsilon"`
	Line      string    `json:"line"` // serialized episode
	Timestamp int64     `json:"timestamp"`
}

// ConnectRedis creates Rdb and verifies the server answers.
func ConnectRedis(ctx context.Context, addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	Rdb = client
	return nil
}

// CloseRedis closes Rdb if it was opened.
func CloseRedis() error {
	if Rdb == nil {
		return nil
	}
	err := Rdb.Close()
	Rdb = nil
	return err
}

// StreamKey is the Redis stream holding the episodes of one run.
func StreamKey(runID uuid.UUID) string {
	return "threes:run:" + runID.String() + ":episodes"
}

// episodeArgs builds the XADD arguments for rec.
func episodeArgs(rec EpisodeRecord) (*redis.XAddArgs, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal episode %s: %w", rec.EpisodeID, err)
	}
	return &redis.XAddArgs{
		Stream: StreamKey(rec.RunID),
		MaxLen: StreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"index": rec.Index,
			"data":  string(data),
		},
	}, nil
}

// PublishEpisode appends rec to its run stream.
func PublishEpisode(ctx context.Context, rec EpisodeRecord) error {
	if Rdb == nil {
		return nil
	}
	args, err := episodeArgs(rec)
	if err != nil {
		return err
	}
	if err := Rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", args.Stream, err)
	}
	return nil
}
