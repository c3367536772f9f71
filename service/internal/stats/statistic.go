// internal/stats/statistic.go
package stats

import (
	"bufio"
	"fmt"
	"io"

	engine "github.com/eric0410771/Game-Theory-Threes/engine"
)

// TileRate is the share of episodes in a block that ended with a given
// max tile. Reach counts that tile or better.
type TileRate struct {
	Index uint8   `json:"index"`
	Tile  int     `json:"tile"`
	Reach float64 `json:"reach"` // percent
	Share float64 `json:"share"` // percent
}

// BlockSummary aggregates the last Episodes episodes of a run.
type BlockSummary struct {
	Count    int        `json:"count"`    // episodes closed so far
	Episodes int        `json:"episodes"` // episodes in this summary
	Average  float64    `json:"average"`
	Max      int        `json:"max"`
	Ops      float64    `json:"ops"`       // half-turns per second
	SlideOps float64    `json:"slide_ops"` // player slides per second of player time
	PlaceOps float64    `json:"place_ops"` // placements per second of environment time
	Tiles    []TileRate `json:"tiles"`
}

// Statistic keeps the episodes of a run and reports a summary every block.
// Only the most recent limit episodes are retained.
type Statistic struct {
	total int
	block int
	limit int
	count int
	data  []*Episode
}

// NewStatistic returns a statistic for total episodes. A zero block or limit
// defaults to total.
func NewStatistic(total, block, limit int) *Statistic {
	if block <= 0 {
		block = max(total, 1)
	}
	if limit <= 0 {
		limit = max(total, 1)
	}
	return &Statistic{total: total, block: block, limit: limit}
}

func (s *Statistic) Total() int { return s.total }
func (s *Statistic) Block() int { return s.block }
func (s *Statistic) Limit() int { return s.limit }
func (s *Statistic) Count() int { return s.count }

// Episodes returns the retained episodes, oldest first.
func (s *Statistic) Episodes() []*Episode { return s.data }

// IsFinished reports whether total episodes have been opened.
func (s *Statistic) IsFinished() bool { return s.count >= s.total }

// OpenEpisode starts a new episode, dropping the oldest one past limit.
func (s *Statistic) OpenEpisode(flag string) *Episode {
	if s.count >= s.limit && len(s.data) > 0 {
		s.data[0] = nil
		s.data = s.data[1:]
	}
	s.count++
	ep := NewEpisode()
	s.data = append(s.data, ep)
	ep.Open(flag)
	return ep
}

// CloseEpisode closes the current episode. At every block boundary it
// returns the summary of the block; otherwise nil.
func (s *Statistic) CloseEpisode(flag string) *BlockSummary {
	s.Back().Close(flag)
	if s.count%s.block == 0 {
		sum := s.Show(s.block)
		return &sum
	}
	return nil
}

// Back returns the current episode, or nil before the first one.
func (s *Statistic) Back() *Episode {
	if len(s.data) == 0 {
		return nil
	}
	return s.data[len(s.data)-1]
}

// Show summarizes the last n retained episodes.
func (s *Statistic) Show(n int) BlockSummary {
	if n > len(s.data) {
		n = len(s.data)
	}
	sum := BlockSummary{Count: s.count, Episodes: n}
	if n == 0 {
		return sum
	}

	var reached [engine.MaxTileIndex + 2]int
	var score, steps, slides, places int
	var dur, slideDur, placeDur int64
	for _, ep := range s.data[len(s.data)-n:] {
		score += ep.Score()
		sum.Max = max(sum.Max, ep.Score())
		reached[min(int(ep.MaxTile()), engine.MaxTileIndex+1)]++
		steps += ep.Step(engine.ActionNone)
		slides += ep.Step(engine.ActionSlide)
		places += ep.Step(engine.ActionPlace)
		dur += ep.Time(engine.ActionNone)
		slideDur += ep.Time(engine.ActionSlide)
		placeDur += ep.Time(engine.ActionPlace)
	}
	sum.Average = float64(score) / float64(n)
	sum.Ops = perSecond(steps, dur)
	sum.SlideOps = perSecond(slides, slideDur)
	sum.PlaceOps = perSecond(places, placeDur)

	accu := n
	for t, c := range reached {
		if c == 0 {
			continue
		}
		sum.Tiles = append(sum.Tiles, TileRate{
			Index: uint8(t),
			Tile:  engine.TileValue(uint8(t)),
			Reach: float64(accu) * 100 / float64(n),
			Share: float64(c) * 100 / float64(n),
		})
		accu -= c
	}
	return sum
}

// Summary summarizes every retained episode.
func (s *Statistic) Summary() BlockSummary { return s.Show(len(s.data)) }

func perSecond(ops int, millis int64) float64 {
	if millis <= 0 {
		return 0
	}
	return float64(ops) * 1000 / float64(millis)
}

// WriteTo prints the summary in the tab-separated report format.
func (b BlockSummary) WriteTo(w io.Writer) (int64, error) {
	bw := &countingWriter{w: w}
	fmt.Fprintf(bw, "%d\tavg = %.0f, max = %d, ops = %.0f (%.0f|%.0f)\n",
		b.Count, b.Average, b.Max, b.Ops, b.SlideOps, b.PlaceOps)
	for _, t := range b.Tiles {
		fmt.Fprintf(bw, "\t%d\t%.0f%%\t(%.0f%%)\n", t.Tile, t.Reach, t.Share)
	}
	fmt.Fprintln(bw)
	return bw.n, bw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Save writes every retained episode, one per line.
func (s *Statistic) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, ep := range s.data {
		if _, err := fmt.Fprintln(bw, ep.String()); err != nil {
			return fmt.Errorf("save episode %s: %w", ep.ID, err)
		}
	}
	return bw.Flush()
}

// Load appends the episodes read from r. The count follows the number of
// retained episodes and total grows to cover them.
func (s *Statistic) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	eps, err := ReadEpisodes(sc)
	s.data = append(s.data, eps...)
	s.total = max(s.total, len(s.data))
	s.count = len(s.data)
	if err != nil {
		return fmt.Errorf("load statistic: %w", err)
	}
	return nil
}
