package vault

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AppendMemory appends one learning to the agent memory file as a
// timestamped bullet, creating the file with its documented header
// when it does not exist yet. Empty learnings are ignored.
func (v *Vault) AppendMemory(learning string) error {
	learning = strings.TrimSpace(learning)
	if learning == "" {
		return nil
	}
	path := v.Path("", MemoryFile)
	content := v.Memory()
	if content == "" {
		content = defaultMemory
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	content += fmt.Sprintf("- [%s] %s\n", stamp, learning)
	if err := atomicWrite(path, []byte(content)); err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	return nil
}

// Slugify converts arbitrary text to a filesystem-safe slug used for
// artifact names.
func Slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	var b strings.Builder
	lastDash := true
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// TouchProcessed moves a blob from Incoming_Files to its .processed
// sub-folder so the file watcher does not pick it up again.
func (v *Vault) TouchProcessed(name string) error {
	src := v.Path(FolderIncoming, name)
	dest := v.Path(FolderProcessed, name)
	if err := os.MkdirAll(v.Dir(FolderProcessed), 0o755); err != nil {
		return fmt.Errorf("processed folder: %w", err)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("archive blob %s: %w", name, err)
	}
	return nil
}
