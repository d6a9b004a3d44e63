// Package image classifies, validates and encodes image references into
// content blocks a vision model accepts.
package image

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/papercomputeco/lens/pkg/llm"
)

// Kind is where the bytes of an image come from.
type Kind int

const (
	KindUnknown Kind = iota
	KindFilePath
	KindURL
	KindBase64
)

// String returns the hint spelling of the kind: "file", "url", "base64" or
// "unknown".
func (k Kind) String() string {
	switch k {
	case KindFilePath:
		return "file"
	case KindURL:
		return "url"
	case KindBase64:
		return "base64"
	}
	return "unknown"
}

// ParseKind parses a caller hint. The empty string parses to KindUnknown,
// which means "no hint".
func ParseKind(hint string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "":
		return KindUnknown, nil
	case "file", "path":
		return KindFilePath, nil
	case "url":
		return KindURL, nil
	case "base64":
		return KindBase64, nil
	}
	return KindUnknown, fmt.Errorf("unknown image kind %q: want file, url or base64", hint)
}

// Source is a classified image reference.
type Source struct {
	Kind Kind
	Raw  string
}

const (
	dataURIPrefix = "data:image/"

	// minBase64Len keeps short words that happen to be in the base64
	// alphabet ("test", "abcd") from classifying as inline data.
	minBase64Len = 16
)

// base64Pattern is the standard alphabet without '/'. Bare strings holding a
// path separator are never read as inline data; base64 that contains '/'
// needs a data: URI or an explicit base64 hint.
var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+]+={0,2}$`)

// Classify infers the kind of raw. Classification is total: anything that is
// not recognisably a URL, inline base64 data or a file path is KindUnknown.
func Classify(raw string) Source {
	return Source{Kind: classify(strings.TrimSpace(raw)), Raw: raw}
}

// ClassifyLexical classifies raw from its spelling alone, never touching the
// filesystem. Paths are recognised only by a supported image extension.
func ClassifyLexical(raw string) Source {
	return Source{Kind: classifyWith(strings.TrimSpace(raw), func(string) bool { return false }), Raw: raw}
}

// ClassifyWithHint classifies raw, letting a caller-declared kind override
// the heuristics. KindUnknown means no hint.
func ClassifyWithHint(raw string, hint Kind) Source {
	if hint == KindUnknown {
		return Classify(raw)
	}
	return Source{Kind: hint, Raw: raw}
}

func classify(raw string) Kind {
	return classifyWith(raw, exists)
}

func classifyWith(raw string, exists func(string) bool) Kind {
	if raw == "" {
		return KindUnknown
	}
	if hasURLScheme(raw) {
		return KindURL
	}
	if strings.HasPrefix(strings.ToLower(raw), dataURIPrefix) {
		return KindBase64
	}
	if looksLikeBase64(raw) && !exists(raw) {
		return KindBase64
	}
	if exists(raw) || llm.MediaTypeFromFormat(filepath.Ext(raw)).Supported() {
		return KindFilePath
	}
	return KindUnknown
}

func hasURLScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func looksLikeBase64(raw string) bool {
	if len(raw) < minBase64Len || len(raw)%4 != 0 {
		return false
	}
	if !base64Pattern.MatchString(raw) {
		return false
	}
	_, err := base64.StdEncoding.Strict().DecodeString(raw)
	return err == nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
