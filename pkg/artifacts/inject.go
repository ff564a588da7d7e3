package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"strings"

	"github.com/theory-cloud/sitetheory/pkg/plan"
)

// File is one generated object written at the destination prefix.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Files is the set of generated objects, ordered by path.
type Files []File

// Get returns the content stored at path.
func (f Files) Get(path string) (string, bool) {
	i := sort.Search(len(f), func(i int) bool { return f[i].Path >= path })
	if i < len(f) && f[i].Path == path {
		return f[i].Content, true
	}
	return "", false
}

// Paths returns the file paths in order.
func (f Files) Paths() []string {
	out := make([]string, len(f))
	for i, file := range f {
		out[i] = file.Path
	}
	return out
}

// Digest is a content hash over every path and body. It changes whenever any generated file
// changes, which forces the copy to run again on update.
func (f Files) Digest() string {
	h := sha256.New()
	for _, file := range f {
		h.Write([]byte(file.Path))
		h.Write([]byte{0})
		h.Write([]byte(file.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizePath returns the canonical object path of a validated relative path, so
// "./a.txt", "a.txt" and "x/../a.txt" name the same object.
func NormalizePath(p string) string {
	return path.Clean(strings.TrimSpace(p))
}

// InjectedFiles merges the injected artifacts and the finalized settings into the files
// written after the copy. Paths are normalized first; a later artifact at the same path
// replaces an earlier one, and the generated settings.json replaces any injected artifact of
// that name. Injected content is literal: it is escaped so no part of it is read as a
// deferred reference.
func InjectedFiles(cfg CopyConfiguration, settings Settings) (Files, error) {
	byPath := map[string]string{}
	for _, artifact := range cfg.InjectedArtifacts {
		byPath[NormalizePath(artifact.Path)] = plan.Escape(artifact.Content)
	}

	if settings.Present() {
		body, err := settings.JSON()
		if err != nil {
			return nil, configProblem("settings", "render settings: %v", err)
		}
		byPath[SettingsFile] = body
	}

	out := make(Files, 0, len(byPath))
	for p, content := range byPath {
		out = append(out, File{Path: p, Content: content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
