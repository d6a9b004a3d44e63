package image

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/lens/pkg/llm"
)

// DefaultMaxSize is the largest image file accepted, in bytes.
const DefaultMaxSize int64 = 5 * 1024 * 1024

// Validation failure reasons.
const (
	ReasonNotFound          = "file not found"
	ReasonUnsupportedFormat = "unsupported image format"
	ReasonTooLarge          = "image too large"
)

// DefaultFormats are the file extensions accepted when none are configured.
var DefaultFormats = []string{"jpeg", "jpg", "png", "gif", "webp", "bmp"}

// ValidationResult is the verdict on a local image file. Reason is set if and
// only if Valid is false.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Err converts a failed result into a *ValidationError for path.
func (r ValidationResult) Err(path string) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Path: path, Reason: r.Reason}
}

// Validator checks local image files against the format whitelist and the
// size ceiling. It does not decode image content.
type Validator struct {
	maxSize int64
	formats map[string]struct{}
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMaxSize sets the size ceiling in bytes. Non-positive values are ignored.
func WithMaxSize(n int64) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxSize = n
		}
	}
}

// WithFormats replaces the extension whitelist. Formats without a known media
// type are ignored, as is an empty list.
func WithFormats(formats ...string) ValidatorOption {
	return func(v *Validator) {
		allowed := map[string]struct{}{}
		for _, f := range formats {
			f = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".")
			if llm.MediaTypeFromFormat(f).Supported() {
				allowed[f] = struct{}{}
			}
		}
		if len(allowed) > 0 {
			v.formats = allowed
		}
	}
}

// NewValidator creates a Validator with the default 5 MB ceiling and the
// jpeg/jpg/png/gif/webp/bmp whitelist, adjusted by opts.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		maxSize: DefaultMaxSize,
		formats: make(map[string]struct{}, len(DefaultFormats)),
	}
	for _, f := range DefaultFormats {
		v.formats[f] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxSize returns the configured size ceiling in bytes.
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate checks, in order, that path is a readable regular file, that its
// extension is whitelisted, and that it is within the size ceiling. The first
// failing check determines the reason.
func (v *Validator) Validate(path string) ValidationResult {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ValidationResult{Reason: ReasonNotFound}
	}
	f, err := os.Open(path)
	if err != nil {
		return ValidationResult{Reason: ReasonNotFound}
	}
	f.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if _, ok := v.formats[ext]; !ok {
		return ValidationResult{Reason: ReasonUnsupportedFormat}
	}

	if info.Size() > v.maxSize {
		return ValidationResult{Reason: ReasonTooLarge}
	}

	return ValidationResult{Valid: true}
}
