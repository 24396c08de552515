package stats

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// #region snapshot-file
// SnapshotFile persists counters as a single msgpack image, the on-disk
// equivalent of the controller's flash page.
type SnapshotFile struct {
	path string
}

// NewSnapshotFile returns a persister writing to path.
func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

// Save replaces the image atomically.
func (f *SnapshotFile) Save(c Counters) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "stats-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Printf("Stats: remove temp snapshot: %v", rmErr)
		}
	}()

	if err := msgpack.NewEncoder(tmp).Encode(c); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the image. A missing file or an implausible total is reported
// as no data, not as an error.
func (f *SnapshotFile) Load() (Counters, bool, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Counters{}, false, nil
		}
		return Counters{}, false, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	var c Counters
	if err := msgpack.NewDecoder(file).Decode(&c); err != nil {
		return Counters{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if !c.plausible() {
		return Counters{}, false, nil
	}
	return c, true, nil
}

// #endregion snapshot-file
