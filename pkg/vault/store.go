package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deskhand/deskhand/pkg/types"
)

// Handle identifies one artifact inside a state folder. Name is the
// path relative to the folder and may contain sub-folders (e.g.
// "email/plan-invoice.md").
type Handle struct {
	Folder string
	Name   string
}

func (h Handle) String() string {
	return h.Folder + "/" + h.Name
}

// Base returns the final path element of the handle's name.
func (h Handle) Base() string {
	return filepath.Base(h.Name)
}

// List returns the artifacts of a folder, recursing into sub-folders,
// ordered by relative name. Dotfiles and non-markdown files are
// skipped.
func (v *Vault) List(folder string) ([]Handle, error) {
	root := v.Dir(folder)
	var handles []Handle
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		handles = append(handles, Handle{Folder: folder, Name: filepath.ToSlash(rel)})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Name < handles[j].Name })
	return handles, nil
}

// Count returns the number of artifacts in a folder, zero when the
// folder does not exist.
func (v *Vault) Count(folder string) int {
	handles, err := v.List(folder)
	if err != nil {
		return 0
	}
	return len(handles)
}

// Exists reports whether an artifact is present in a folder.
func (v *Vault) Exists(folder, name string) bool {
	_, err := os.Stat(v.Path(folder, name))
	return err == nil
}

// Read parses an artifact into its header and body.
func (v *Vault) Read(h Handle) (types.Header, string, error) {
	content, err := v.ReadRaw(h)
	if err != nil {
		return types.Header{}, "", err
	}
	header, body := types.ParseDocument(content)
	return header, body, nil
}

// ReadRaw returns an artifact's full text.
func (v *Vault) ReadRaw(h Handle) (string, error) {
	data, err := os.ReadFile(v.Path(h.Folder, h.Name))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", h, err)
	}
	return string(data), nil
}

// Write creates or replaces an artifact atomically (write to a temp
// file in the destination directory, then rename).
func (v *Vault) Write(folder, name string, header types.Header, body string) (Handle, error) {
	content := header.Render() + "\n" + body
	return v.WriteRaw(folder, name, content)
}

// WriteRaw writes raw artifact text atomically.
func (v *Vault) WriteRaw(folder, name, content string) (Handle, error) {
	h := Handle{Folder: folder, Name: filepath.ToSlash(name)}
	path := v.Path(folder, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Handle{}, fmt.Errorf("write %s: %w", h, err)
	}
	if err := atomicWrite(path, []byte(content)); err != nil {
		return Handle{}, fmt.Errorf("write %s: %w", h, err)
	}
	return h, nil
}

// Move renames an artifact into another state folder, keeping its
// relative name. The move fails if the destination already holds an
// artifact of that name.
func (v *Vault) Move(h Handle, destFolder string) (Handle, error) {
	dest := Handle{Folder: destFolder, Name: h.Name}
	destPath := v.Path(destFolder, h.Name)
	if _, err := os.Stat(destPath); err == nil {
		return Handle{}, fmt.Errorf("move %s: destination %s already exists", h, dest)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Handle{}, fmt.Errorf("move %s: %w", h, err)
	}
	if err := os.Rename(v.Path(h.Folder, h.Name), destPath); err != nil {
		return Handle{}, fmt.Errorf("move %s to %s: %w", h, destFolder, err)
	}
	return dest, nil
}

// Delete removes an artifact.
func (v *Vault) Delete(h Handle) error {
	if err := os.Remove(v.Path(h.Folder, h.Name)); err != nil {
		return fmt.Errorf("delete %s: %w", h, err)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
