package build

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// StageCache backs short-circuit stage skipping: a stage whose script body
// and macro snapshot hash unchanged since the last run is assumed to have
// already left the build tree in the right state, and is skipped rather
// than re-executed. A nil *StageCache (the zero case when Config.TempDir is
// empty) disables caching; every stage always runs.
type StageCache struct {
	dir string
}

// NewStageCache returns a StageCache persisting its markers under dir.
func NewStageCache(dir string) *StageCache {
	return &StageCache{dir: dir}
}

// Key hashes a stage's script body together with a macro snapshot (the
// expanded prologue text already folds in the current macro state, so
// passing body+snapshot as one string is sufficient to detect any change
// that would alter the stage's behavior).
func Key(body, macroSnapshot string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(body)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(macroSnapshot)
	return h.Sum64()
}

func (c *StageCache) markerPath(stage Stage) string {
	return filepath.Join(c.dir, "stage-"+stage.String()+".cachekey")
}

// Unchanged reports whether stage last ran with the same key and therefore
// may be skipped under short-circuit.
func (c *StageCache) Unchanged(stage Stage, key uint64) bool {
	if c == nil {
		return false
	}
	data, err := os.ReadFile(c.markerPath(stage))
	if err != nil {
		return false
	}
	prev, err := strconv.ParseUint(string(data), 16, 64)
	if err != nil {
		return false
	}
	return prev == key
}

// Record persists key as the last-seen hash for stage.
func (c *StageCache) Record(stage Stage, key uint64) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(c.markerPath(stage), []byte(strconv.FormatUint(key, 16)), 0644)
}
