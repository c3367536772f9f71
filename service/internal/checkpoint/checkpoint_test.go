// internal/checkpoint/checkpoint_test.go
package checkpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eric0410771/Game-Theory-Threes/engine/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestKnownValue(t *testing.T) {
	// blake2b-256 of the empty input.
	sum, err := Digest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", sum)
}

func TestSaveAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")
	store := agent.NewWeightStore(8)
	f := agent.Features{}
	store.Accumulate(&f, 1.5)

	sum, err := Save(path, store)
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	fileSum, err := DigestFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, fileSum)

	var buf bytes.Buffer
	_, err = store.WriteTo(&buf)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), raw)

	ok, err := Verify(path)
	assert.True(t, ok)
	assert.NoError(t, err)

	loaded, err := agent.LoadWeightStore(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Capacity())

	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	ok, err = Verify(path)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestVerifyWithoutSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	ok, err := Verify(path)
	assert.False(t, ok)
	assert.NoError(t, err)
}
