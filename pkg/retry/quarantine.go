package retry

import (
	"fmt"
	"time"

	"github.com/deskhand/deskhand/pkg/vault"
)

// DefaultMinAge is how long an artifact rests in quarantine before the
// sweeper reinstates it.
const DefaultMinAge = 5 * time.Minute

// Quarantine stamps an artifact with the failure reason and time and
// moves it to the Quarantine folder.
func Quarantine(v *vault.Vault, h vault.Handle, reason string) (vault.Handle, error) {
	header, body, err := v.Read(h)
	if err != nil {
		return vault.Handle{}, err
	}
	header.QuarantineError = reason
	header.QuarantineTime = time.Now().UTC().Format(time.RFC3339)
	if _, err := v.Write(h.Folder, h.Name, header, body); err != nil {
		return vault.Handle{}, err
	}
	dest, err := v.Move(h, vault.FolderQuarantine)
	if err != nil {
		return vault.Handle{}, fmt.Errorf("quarantine %s: %w", h, err)
	}
	return dest, nil
}

// Sweep returns quarantined artifacts older than minAge to
// Needs_Action, stripping the quarantine header fields. Artifacts
// without a parseable quarantine_time count as infinitely old.
func Sweep(v *vault.Vault, minAge time.Duration) ([]vault.Handle, error) {
	items, err := v.List(vault.FolderQuarantine)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var restored []vault.Handle
	for _, item := range items {
		header, body, err := v.Read(item)
		if err != nil {
			return restored, err
		}
		if stamp, err := time.Parse(time.RFC3339, header.QuarantineTime); err == nil {
			if now.Sub(stamp) < minAge {
				continue
			}
		}
		header.QuarantineError = ""
		header.QuarantineTime = ""
		if _, err := v.Write(item.Folder, item.Name, header, body); err != nil {
			return restored, err
		}
		dest, err := v.Move(item, vault.FolderNeedsAction)
		if err != nil {
			return restored, fmt.Errorf("restore %s: %w", item, err)
		}
		restored = append(restored, dest)
	}
	return restored, nil
}
