// internal/checkpoint/checkpoint.go
package checkpoint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrDigestMismatch is returned by Verify when a file does not match its digest.
var ErrDigestMismatch = errors.New("checkpoint digest mismatch")

// SumSuffix is appended to a weight file name for its digest sidecar.
const SumSuffix = ".b2sum"

// Digest returns the hex blake2b-256 digest of everything read from r.
func Digest(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestFile returns the digest of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Digest(f)
}

// Save writes src to path through a temporary file, renames it into place
// and writes the digest sidecar next to it. It returns the digest.
func Save(path string, src io.WriterTo) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("checkpoint %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := src.WriteTo(io.MultiWriter(tmp, h)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("checkpoint %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("checkpoint %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("checkpoint %s: %w", path, err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	line := sum + "  " + filepath.Base(path) + "\n"
	if err := os.WriteFile(path+SumSuffix, []byte(line), 0o644); err != nil {
		return sum, fmt.Errorf("checkpoint %s: write digest: %w", path, err)
	}
	return sum, nil
}

// Verify compares the file at path with the digest in its sidecar. A
// missing sidecar is not an error; ok reports whether one was checked.
func Verify(path string) (ok bool, err error) {
	raw, err := os.ReadFile(path + SumSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	want, _, _ := strings.Cut(strings.TrimSpace(string(raw)), " ")
	got, err := DigestFile(path)
	if err != nil {
		return false, err
	}
	if got != want {
		return true, fmt.Errorf("%w: %s has %s, sidecar says %s", ErrDigestMismatch, path, got, want)
	}
	return true, nil
}
