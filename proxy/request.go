package proxy

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/profile"
)

// PrepareRequest is the body of /v1/envelope and /v1/messages. Agent names a
// profile whose system prompt and image fill in whatever the request leaves
// empty.
type PrepareRequest struct {
	Agent       string        `json:"agent,omitempty"`
	System      *string       `json:"system,omitempty"`
	SystemImage string        `json:"system_image,omitempty"`
	ImageType   string        `json:"image_type,omitempty"`
	Messages    []llm.Message `json:"messages"`

	// Only used by /v1/messages.
	Model     string       `json:"model,omitempty"`
	MaxTokens int          `json:"max_tokens,omitempty"`
	Options   *llm.Options `json:"options,omitempty"`
}

// errUnknownAgent reports a request naming a profile that does not exist.
type errUnknownAgent struct {
	Name string
}

func (e errUnknownAgent) Error() string {
	return "unknown agent: " + e.Name
}

// errFileImageDenied rejects a request-supplied file image outside the image
// root. It names no path so callers learn nothing about the filesystem.
var errFileImageDenied = errors.New("file images must be under the proxy image root")

// input resolves the request against the profile store into preparer input.
// Images named by the request are pinned to the kind read from their
// spelling; anything that is not a URL or inline data is a file and must be
// under root. Profile images are trusted.
func (r *PrepareRequest) input(profiles *profile.Store, root string) (envelope.Input, error) {
	in := envelope.Input{
		System:      r.System,
		SystemImage: r.SystemImage,
		Messages:    r.Messages,
	}
	imageType := r.ImageType
	fromRequest := in.SystemImage != ""

	if r.Agent != "" {
		p, ok := profiles.Get(r.Agent)
		if !ok {
			return envelope.Input{}, errUnknownAgent{Name: r.Agent}
		}
		if in.System == nil && p.System != "" {
			system := p.System
			in.System = &system
		}
		if in.SystemImage == "" {
			in.SystemImage = p.Image
			imageType = p.ImageType
		}
	}

	hint, err := image.ParseKind(imageType)
	if err != nil {
		return envelope.Input{}, err
	}
	in.ImageHint = hint

	if fromRequest && strings.TrimSpace(in.SystemImage) != "" {
		kind := hint
		if kind == image.KindUnknown {
			kind = image.ClassifyLexical(in.SystemImage).Kind
		}
		if kind != image.KindURL && kind != image.KindBase64 {
			if !withinRoot(root, strings.TrimSpace(in.SystemImage)) {
				return envelope.Input{}, errFileImageDenied
			}
			kind = image.KindFilePath
		}
		in.ImageHint = kind
	}

	return in, nil
}

// withinRoot reports whether path resolves to root or below it. An empty
// root admits nothing.
func withinRoot(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolvePath makes path absolute and follows symlinks where it exists.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs)), nil
	}
	return abs, nil
}
