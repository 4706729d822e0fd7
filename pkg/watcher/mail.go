package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/mail"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
)

const seenBucketMail = "mail"

// MailWatcher turns provider messages into email artifacts.
type MailWatcher struct {
	provider mail.Provider
	vault    *vault.Vault
	journal  *journal.Journal
	seen     *SeenCache
	query    string
	vips     []string
	logger   zerolog.Logger
}

// NewMailWatcher wires a mail watcher.
func NewMailWatcher(p mail.Provider, v *vault.Vault, j *journal.Journal, seen *SeenCache, query string, vips []string) *MailWatcher {
	return &MailWatcher{
		provider: p,
		vault:    v,
		journal:  j,
		seen:     seen,
		query:    query,
		vips:     vips,
		logger:   log.WithComponent("mail-watcher"),
	}
}

// Name implements Watcher.
func (w *MailWatcher) Name() string { return "mail" }

// RunOnce polls the provider and materializes one artifact per new
// message. A failing message is logged and skipped.
func (w *MailWatcher) RunOnce(ctx context.Context) (int, error) {
	messages, err := w.provider.Search(ctx, w.query)
	if err != nil {
		return 0, fmt.Errorf("mail search: %w", err)
	}
	created := 0
	for _, msg := range messages {
		if w.seen.Seen(seenBucketMail, msg.ID) {
			continue
		}
		if err := w.materialize(ctx, msg); err != nil {
			w.logger.Error().Err(err).Str("message_id", msg.ID).Msg("skipping message")
			continue
		}
		created++
	}
	return created, nil
}

func (w *MailWatcher) materialize(ctx context.Context, msg mail.Message) error {
	name := artifactName(types.TypeEmail, msg.Subject, msg.ID)
	priority := ClassifyPriority(mail.Address(msg.From), msg.Subject, msg.Body, w.vips)
	header := types.Header{
		Type:     types.TypeEmail,
		Created:  time.Now().UTC().Format(time.RFC3339),
		From:     msg.From,
		Subject:  msg.Subject,
		Date:     msg.Date,
		MailID:   msg.ID,
		Priority: priority,
	}
	if _, err := w.vault.Write(vault.FolderNeedsAction, name, header, msg.Body+"\n"); err != nil {
		return err
	}
	if err := w.journal.Append("mail-watcher", "email_detected", name,
		fmt.Sprintf("from:%s priority:%s", mail.Address(msg.From), priority)); err != nil {
		w.logger.Warn().Err(err).Msg("journal append failed")
	}
	if err := w.provider.MarkProcessed(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark processed %s: %w", msg.ID, err)
	}
	if err := w.seen.Mark(seenBucketMail, msg.ID); err != nil {
		w.logger.Warn().Err(err).Msg("seen cache write failed")
	}
	w.logger.Info().Str("artifact", name).Str("priority", string(priority)).Msg("email materialized")
	return nil
}

func artifactName(kind, title, id string) string {
	slug := vault.Slugify(title)
	if slug == "" {
		slug = "untitled"
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}
	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s-%s.md", kind, slug, suffix)
}
