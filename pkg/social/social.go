// Package social holds the destination sinks for social_post plans:
// LinkedIn, Facebook, and Twitter posters behind one interface, plus
// draft creation and the activity summary used by briefings.
package social

import (
	"context"
	"fmt"
	"time"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
)

// Poster publishes content to one platform.
type Poster interface {
	// Platform returns the lowercase platform name used in plan
	// headers.
	Platform() string

	// Validate reports whether the poster has usable credentials.
	Validate() error

	// Post publishes content and returns a provider-side reference.
	Post(ctx context.Context, content string) (string, error)
}

// Registry maps platform names to posters.
type Registry map[string]Poster

// NewRegistry indexes posters by platform.
func NewRegistry(posters ...Poster) Registry {
	r := make(Registry, len(posters))
	for _, p := range posters {
		r[p.Platform()] = p
	}
	return r
}

// Lookup returns the poster for a platform.
func (r Registry) Lookup(platform string) (Poster, error) {
	p, ok := r[platform]
	if !ok {
		return nil, fmt.Errorf("no poster configured for platform %q", platform)
	}
	return p, nil
}

// CreateDraft writes a social_post plan straight into Pending_Approval
// so a human can approve it like any other plan.
func CreateDraft(v *vault.Vault, platform, content string) (vault.Handle, error) {
	slug := vault.Slugify(content)
	if len(slug) > 30 {
		slug = slug[:30]
	}
	if slug == "" {
		slug = "post"
	}
	name := fmt.Sprintf("plan-%s-%s.md", platform, slug)
	header := types.Header{
		Type:     types.TypeSocialPost,
		Created:  time.Now().UTC().Format(time.RFC3339),
		Status:   types.StatusPendingApproval,
		Action:   types.ActionSocialPost,
		Platform: platform,
	}
	return v.Write(vault.FolderPendingApproval, name, header, content+"\n")
}

// Summary counts posted entries per platform within a journal slice.
func Summary(entries []journal.Entry) map[string]int {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Action == "social_posted" {
			counts[e.Result]++
		}
	}
	return counts
}
