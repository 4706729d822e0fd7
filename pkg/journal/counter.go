package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type counterFile struct {
	Count int `json:"count"`
}

func (j *Journal) counterPath(name string) string {
	day := j.now().UTC().Format("2006-01-02")
	return filepath.Join(j.Dir, fmt.Sprintf(".count_%s_%s.json", name, day))
}

// CheckLimit reports whether the named per-day counter is still under
// limit. A limit of zero blocks the operation entirely.
func (j *Journal) CheckLimit(name string, limit int) bool {
	return j.Count(name) < limit
}

// Count returns today's value of the named counter.
func (j *Journal) Count(name string) int {
	data, err := os.ReadFile(j.counterPath(name))
	if err != nil {
		return 0
	}
	var c counterFile
	if err := json.Unmarshal(data, &c); err != nil {
		return 0
	}
	return c.Count
}

// Increment bumps today's value of the named counter and returns the
// new count.
func (j *Journal) Increment(name string) (int, error) {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("journal dir: %w", err)
	}
	count := j.Count(name) + 1
	data, err := json.Marshal(counterFile{Count: count})
	if err != nil {
		return 0, err
	}
	if err := atomicWrite(j.counterPath(name), data); err != nil {
		return 0, fmt.Errorf("counter %s: %w", name, err)
	}
	return count, nil
}
