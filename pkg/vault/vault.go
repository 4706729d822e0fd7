// Package vault manages the shared folder tree that both zones operate
// on. Artifacts move between folders by atomic rename, which is the only
// coordination primitive the pipeline relies on.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// Folder names of the canonical vault layout. The superset is always
// created even when a zone never touches some of them.
const (
	FolderNeedsAction     = "Needs_Action"
	FolderPlans           = "Plans"
	FolderPendingApproval = "Pending_Approval"
	FolderApproved        = "Approved"
	FolderRejected        = "Rejected"
	FolderDone            = "Done"
	FolderLogs            = "Logs"
	FolderIncoming        = "Incoming_Files"
	FolderProcessed       = "Incoming_Files/.processed"
	FolderQuarantine      = "Quarantine"
	FolderInProgress      = "In_Progress"
	FolderUpdates         = "Updates"
	FolderBriefings       = "Briefings"
)

// Top-level seed files.
const (
	HandbookFile  = "Company_Handbook.md"
	MemoryFile    = "Agent_Memory.md"
	DashboardFile = "Dashboard.md"
)

var layoutFolders = []string{
	FolderNeedsAction,
	FolderPlans,
	FolderPendingApproval,
	FolderApproved,
	FolderRejected,
	FolderDone,
	FolderLogs,
	FolderIncoming,
	FolderProcessed,
	FolderQuarantine,
	FolderInProgress,
	FolderUpdates,
	FolderBriefings,
}

// Vault is the shared content store. All pipeline state lives in its
// folder layout; the vault itself never interprets artifact content
// beyond the header block.
type Vault struct {
	Root string
}

// New returns a Vault rooted at the given directory.
func New(root string) *Vault {
	return &Vault{Root: root}
}

// Path returns the absolute path of a name inside a vault folder.
// An empty folder addresses the vault root.
func (v *Vault) Path(folder, name string) string {
	if folder == "" {
		return filepath.Join(v.Root, name)
	}
	return filepath.Join(v.Root, folder, name)
}

// Dir returns the absolute path of a vault folder.
func (v *Vault) Dir(folder string) string {
	return filepath.Join(v.Root, folder)
}

// LogsDir returns the absolute path of the Logs folder.
func (v *Vault) LogsDir() string {
	return v.Dir(FolderLogs)
}

// EnsureLayout creates the full folder set and seeds the handbook and
// memory files. It is idempotent; existing content is never touched.
func (v *Vault) EnsureLayout() error {
	if err := os.MkdirAll(v.Root, 0o755); err != nil {
		return fmt.Errorf("create vault root: %w", err)
	}
	for _, folder := range layoutFolders {
		if err := os.MkdirAll(v.Dir(folder), 0o755); err != nil {
			return fmt.Errorf("create folder %s: %w", folder, err)
		}
	}
	for name, content := range map[string]string{
		HandbookFile: defaultHandbook,
		MemoryFile:   defaultMemory,
	} {
		path := v.Path("", name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := atomicWrite(path, []byte(content)); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return nil
}

// Handbook returns the handbook text, or empty when missing.
func (v *Vault) Handbook() string {
	data, err := os.ReadFile(v.Path("", HandbookFile))
	if err != nil {
		return ""
	}
	return string(data)
}

// Memory returns the agent memory text, or empty when missing.
func (v *Vault) Memory() string {
	data, err := os.ReadFile(v.Path("", MemoryFile))
	if err != nil {
		return ""
	}
	return string(data)
}
