// Package journal implements the vault's append-only audit trail and
// the per-day rate counters that cap side-effecting operations.
//
// Entries land in one JSON array file per UTC day under Logs/. Each
// zone is the single writer of its own log files; the format stays
// human-inspectable so the audit trail can be read without tooling.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one audit record.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Source    string `json:"source"`
	Result    string `json:"result"`
}

// Journal appends and reads audit entries in a Logs directory.
type Journal struct {
	Dir string

	// now is swappable for tests.
	now func() time.Time
}

// New returns a Journal writing into dir.
func New(dir string) *Journal {
	return &Journal{Dir: dir, now: time.Now}
}

// Append records one entry in the current UTC day's log file.
func (j *Journal) Append(actor, action, source, result string) error {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return fmt.Errorf("journal dir: %w", err)
	}
	now := j.now().UTC()
	path := filepath.Join(j.Dir, now.Format("2006-01-02")+".json")

	var entries []Entry
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("journal %s is corrupt: %w", filepath.Base(path), err)
		}
	}
	entries = append(entries, Entry{
		Timestamp: now.Format(time.RFC3339),
		Actor:     actor,
		Action:    action,
		Source:    source,
		Result:    result,
	})
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// Entries returns all entries from day files on or after since,
// oldest file first. Files whose names do not parse as dates are
// skipped.
func (j *Journal) Entries(since time.Time) ([]Entry, error) {
	files, err := os.ReadDir(j.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		day, err := time.Parse("2006-01-02", strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if day.Before(since.UTC().Truncate(24 * time.Hour)) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var all []Entry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(j.Dir, name))
		if err != nil {
			continue
		}
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			continue
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Recent returns up to n of the latest entries, newest first.
func (j *Journal) Recent(n int) []Entry {
	entries, err := j.Entries(j.now().UTC().AddDate(0, 0, -7))
	if err != nil || len(entries) == 0 {
		return nil
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	// Reverse in place: newest first.
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
