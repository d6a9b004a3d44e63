// Package profile loads agent profiles: a named system prompt with an
// optional system image, kept in a TOML file and reloaded when it changes.
package profile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/lens/pkg/image"
)

// Profile is one agent's system prompt and image.
type Profile struct {
	Name      string `toml:"name" json:"name"`
	System    string `toml:"system" json:"system,omitempty"`
	Image     string `toml:"image" json:"image,omitempty"`
	ImageType string `toml:"image_type" json:"image_type,omitempty"`
}

// Hint returns the declared image kind, KindUnknown when none is declared.
func (p Profile) Hint() (image.Kind, error) {
	return image.ParseKind(p.ImageType)
}

type profileFile struct {
	Agents []Profile `toml:"agent"`
}

// Load parses the [[agent]] tables in path. Names must be unique and
// non-empty. Relative image paths are resolved against the file's directory.
func Load(path string) ([]Profile, error) {
	var f profileFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("could not decode profiles %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown profile key %s in %s", undecoded[0], path)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]struct{}, len(f.Agents))

	for i := range f.Agents {
		p := &f.Agents[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("agent %d in %s has no name", i, path)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate agent %q in %s", p.Name, path)
		}
		seen[p.Name] = struct{}{}

		hint, err := p.Hint()
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", p.Name, err)
		}
		p.Image = resolveImage(dir, p.Image, hint)
	}

	return f.Agents, nil
}

func resolveImage(dir, ref string, hint image.Kind) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	if image.ClassifyWithHint(ref, hint).Kind != image.KindFilePath {
		return ref
	}
	return filepath.Join(dir, ref)
}
