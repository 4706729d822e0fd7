package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ClaimInProgress moves a Needs_Action artifact under
// In_Progress/<agent>/. The claim fails when any agent sub-folder
// already holds the name; the first mover owns the item.
func (v *Vault) ClaimInProgress(name, agent string) (Handle, error) {
	src := v.Path(FolderNeedsAction, name)
	if _, err := os.Stat(src); err != nil {
		return Handle{}, fmt.Errorf("claim %s: %w", name, err)
	}
	entries, err := os.ReadDir(v.Dir(FolderInProgress))
	if err != nil && !os.IsNotExist(err) {
		return Handle{}, fmt.Errorf("claim %s: %w", name, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(v.Dir(FolderInProgress), e.Name(), name)); err == nil {
			return Handle{}, fmt.Errorf("claim %s: already claimed by %s", name, e.Name())
		}
	}
	destFolder := filepath.Join(FolderInProgress, agent)
	if err := os.MkdirAll(v.Dir(destFolder), 0o755); err != nil {
		return Handle{}, fmt.Errorf("claim %s: %w", name, err)
	}
	dest := Handle{Folder: destFolder, Name: name}
	if err := os.Rename(src, v.Path(destFolder, name)); err != nil {
		return Handle{}, fmt.Errorf("claim %s: %w", name, err)
	}
	return dest, nil
}

// WriteUpdate drops a note into Updates/ for the Local zone to drain.
// The Cloud zone uses this instead of touching the dashboard index
// (single-writer rule).
func (v *Vault) WriteUpdate(name, content string) (Handle, error) {
	return v.WriteRaw(FolderUpdates, name, content)
}

// DrainUpdates appends pending Updates/ notes to the dashboard index
// and removes them. Only the Local zone calls this. Returns the number
// of updates drained.
func (v *Vault) DrainUpdates() (int, error) {
	updates, err := v.List(FolderUpdates)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })

	dashboard := ""
	if data, err := os.ReadFile(v.Path("", DashboardFile)); err == nil {
		dashboard = string(data)
	}

	drained := 0
	for _, u := range updates {
		content, err := v.ReadRaw(u)
		if err != nil {
			return drained, err
		}
		stem := strings.TrimSuffix(u.Base(), ".md")
		dashboard += fmt.Sprintf("\n\n## Update: %s\n%s", stem, strings.TrimSpace(content))
		if err := v.Delete(u); err != nil {
			return drained, err
		}
		drained++
	}
	if err := atomicWrite(v.Path("", DashboardFile), []byte(dashboard)); err != nil {
		return drained, fmt.Errorf("drain updates: %w", err)
	}
	return drained, nil
}
