package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/extract"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
)

const seenBucketFile = "file"

// noTextPlaceholder fills the artifact body when extraction came up
// empty so a reviewer still sees something actionable.
const noTextPlaceholder = "(no text could be extracted from this file)"

// FileWatcher scans the Incoming_Files drop folder for supported blobs
// and turns each into a file artifact with extracted text.
type FileWatcher struct {
	vault     *vault.Vault
	journal   *journal.Journal
	assistant assistant.Assistant
	seen      *SeenCache
	dryRun    bool
	logger    zerolog.Logger
}

// NewFileWatcher wires a file watcher. In dry-run mode detections are
// logged but nothing is materialized or moved.
func NewFileWatcher(v *vault.Vault, j *journal.Journal, a assistant.Assistant, seen *SeenCache, dryRun bool) *FileWatcher {
	return &FileWatcher{
		vault:     v,
		journal:   j,
		assistant: a,
		seen:      seen,
		dryRun:    dryRun,
		logger:    log.WithComponent("file-watcher"),
	}
}

// Name implements Watcher.
func (w *FileWatcher) Name() string { return "file" }

// RunOnce scans the drop folder. A failing blob is logged and skipped.
func (w *FileWatcher) RunOnce(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.vault.Dir(vault.FolderIncoming))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan incoming: %w", err)
	}
	created := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		if !extract.Supported(ext) {
			continue
		}
		if w.seen.Seen(seenBucketFile, name) {
			continue
		}
		if w.dryRun {
			w.logger.Info().Str("file", name).Msg("dry-run: would materialize")
			continue
		}
		if err := w.materialize(ctx, name, ext); err != nil {
			w.logger.Error().Err(err).Str("file", name).Msg("skipping file")
			continue
		}
		created++
	}
	return created, nil
}

func (w *FileWatcher) materialize(ctx context.Context, name, ext string) error {
	path := w.vault.Path(vault.FolderIncoming, name)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	text, extracted := extract.ForFile(ctx, w.assistant, path, ext)
	body := text
	if !extracted {
		body = noTextPlaceholder
	}

	stem := strings.TrimSuffix(name, ext)
	artifact := fmt.Sprintf("%s-%s.md", types.TypeFile, vault.Slugify(stem))
	header := types.Header{
		Type:      types.TypeFile,
		Created:   time.Now().UTC().Format(time.RFC3339),
		Filename:  name,
		Extension: strings.ToLower(ext),
		SizeBytes: info.Size(),
		Extracted: extracted,
		Priority:  types.PriorityNormal,
	}
	if _, err := w.vault.Write(vault.FolderNeedsAction, artifact, header, body+"\n"); err != nil {
		return err
	}
	if err := w.vault.TouchProcessed(name); err != nil {
		return err
	}
	if err := w.journal.Append("file-watcher", "file_detected", artifact,
		fmt.Sprintf("filename:%s extracted:%t", name, extracted)); err != nil {
		w.logger.Warn().Err(err).Msg("journal append failed")
	}
	if err := w.seen.Mark(seenBucketFile, name); err != nil {
		w.logger.Warn().Err(err).Msg("seen cache write failed")
	}
	w.logger.Info().Str("artifact", artifact).Bool("extracted", extracted).Msg("file materialized")
	return nil
}
