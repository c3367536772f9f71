package agent

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrCorruptWeights is returned when a weight blob's header or table sizes
// do not match what the store expects.
var ErrCorruptWeights = errors.New("corrupt weight file")

const (
	headerBytes = 4
	cellBytes   = 4
	chunkCells  = 16384
)

// WeightStore is the n-tuple network: NumPatterns tables of capacity
// float32 cells, kept in one contiguous arena. Table p starts at
// p*capacity. Feature indices at or beyond capacity wrap modulo capacity,
// so a capacity of FeatureSpace addresses every index directly.
//
// Binary layout (little-endian):
//
//	uint32 table count N
//	N × capacity × float32
type WeightStore struct {
	capacity int
	cells    []float32
}

// NewWeightStore allocates a zeroed store. capacity <= 0 means FeatureSpace.
func NewWeightStore(capacity int) *WeightStore {
	if capacity <= 0 {
		capacity = FeatureSpace
	}
	return &WeightStore{
		capacity: capacity,
		cells:    make([]float32, NumPatterns*capacity),
	}
}

// Tables returns the number of tables (always NumPatterns).
func (w *WeightStore) Tables() int { return NumPatterns }

// Capacity returns the number of cells per table.
func (w *WeightStore) Capacity() int { return w.capacity }

// Table returns table p as a slice into the arena.
func (w *WeightStore) Table(p int) []float32 {
	return w.cells[p*w.capacity : (p+1)*w.capacity]
}

func (w *WeightStore) offset(p int, idx uint32) int {
	return p*w.capacity + int(idx%uint32(w.capacity))
}

// Value returns the linear value: the sum over patterns of
// table[p][f[p]].
func (w *WeightStore) Value(f *Features) float32 {
	var sum float32
	for p, idx := range f {
		sum += w.cells[w.offset(p, idx)]
	}
	return sum
}

// Accumulate adds delta to table[p][f[p]] for every pattern p.
func (w *WeightStore) Accumulate(f *Features, delta float32) {
	for p, idx := range f {
		w.cells[w.offset(p, idx)] += delta
	}
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// WriteTo writes the header and every table. It implements io.WriterTo.
func (w *WeightStore) WriteTo(out io.Writer) (int64, error) {
	bw := bufio.NewWriter(out)
	var n int64

	var hdr [headerBytes]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(NumPatterns))
	m, err := bw.Write(hdr[:])
	n += int64(m)
	if err != nil {
		return n, fmt.Errorf("write weight header: %w", err)
	}

	buf := make([]byte, chunkCells*cellBytes)
	for start := 0; start < len(w.cells); start += chunkCells {
		end := min(start+chunkCells, len(w.cells))
		for i, v := range w.cells[start:end] {
			binary.LittleEndian.PutUint32(buf[i*cellBytes:], math.Float32bits(v))
		}
		m, err := bw.Write(buf[:(end-start)*cellBytes])
		n += int64(m)
		if err != nil {
			return n, fmt.Errorf("write weight cells: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flush weights: %w", err)
	}
	return n, nil
}

// ReadFrom replaces every cell with the blob read from in. The blob must
// hold exactly NumPatterns tables of Capacity() cells: a wrong count, a
// short table or trailing bytes yield ErrCorruptWeights and leave the store
// unchanged. It implements io.ReaderFrom.
func (w *WeightStore) ReadFrom(in io.Reader) (int64, error) {
	br := bufio.NewReader(in)
	var n int64

	var hdr [headerBytes]byte
	m, err := io.ReadFull(br, hdr[:])
	n += int64(m)
	if err != nil {
		return n, fmt.Errorf("%w: header: %v", ErrCorruptWeights, err)
	}
	if count := binary.LittleEndian.Uint32(hdr[:]); count != NumPatterns {
		return n, fmt.Errorf("%w: %d tables, want %d", ErrCorruptWeights, count, NumPatterns)
	}

	cells := make([]float32, len(w.cells))
	buf := make([]byte, chunkCells*cellBytes)
	for start := 0; start < len(cells); start += chunkCells {
		end := min(start+chunkCells, len(cells))
		m, err := io.ReadFull(br, buf[:(end-start)*cellBytes])
		n += int64(m)
		if err != nil {
			return n, fmt.Errorf("%w: table %d truncated: %v", ErrCorruptWeights, start/w.capacity, err)
		}
		for i := range cells[start:end] {
			cells[start+i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*cellBytes:]))
		}
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return n, fmt.Errorf("%w: trailing data after %d tables", ErrCorruptWeights, NumPatterns)
	}

	w.cells = cells
	return n, nil
}

// LoadWeightStore reads a store from path. The per-table capacity is
// derived from the file size, which must split evenly into the header and
// NumPatterns non-empty tables.
func LoadWeightStore(path string) (*WeightStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weight file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat weight file: %w", err)
	}
	body := info.Size() - headerBytes
	if body <= 0 || body%(NumPatterns*cellBytes) != 0 {
		return nil, fmt.Errorf("%w: %d bytes do not hold %d tables", ErrCorruptWeights, info.Size(), NumPatterns)
	}

	w := NewWeightStore(int(body / (NumPatterns * cellBytes)))
	if _, err := w.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return w, nil
}
