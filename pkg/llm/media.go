package llm

import (
	"net/url"
	"path"
	"strings"
)

// MediaType is the declared encoding format of an image content block.
type MediaType string

const (
	MediaTypeJPEG MediaType = "image/jpeg"
	MediaTypePNG  MediaType = "image/png"
	MediaTypeGIF  MediaType = "image/gif"
	MediaTypeWebP MediaType = "image/webp"
	MediaTypeBMP  MediaType = "image/bmp"

	// MediaTypeUnsupported marks a format outside the whitelist, or a URL
	// whose format could not be inferred.
	MediaTypeUnsupported MediaType = ""
)

// mediaTypesByFormat maps lowercase format names and extensions (without the
// leading dot) to their media type.
var mediaTypesByFormat = map[string]MediaType{
	"jpeg": MediaTypeJPEG,
	"jpg":  MediaTypeJPEG,
	"png":  MediaTypePNG,
	"gif":  MediaTypeGIF,
	"webp": MediaTypeWebP,
	"bmp":  MediaTypeBMP,
}

// MediaTypeFromFormat resolves a format name or file extension ("png",
// ".JPG") to a media type. Unknown formats yield MediaTypeUnsupported.
func MediaTypeFromFormat(format string) MediaType {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	return mediaTypesByFormat[format]
}

// ParseMediaType resolves a declared content type ("image/png",
// "image/jpg; charset=binary") to a media type.
func ParseMediaType(contentType string) MediaType {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	format, ok := strings.CutPrefix(contentType, "image/")
	if !ok {
		return MediaTypeUnsupported
	}
	return MediaTypeFromFormat(format)
}

// Supported reports whether m is in the whitelist.
func (m MediaType) Supported() bool {
	switch m {
	case MediaTypeJPEG, MediaTypePNG, MediaTypeGIF, MediaTypeWebP, MediaTypeBMP:
		return true
	}
	return false
}

// MediaTypeFromURL infers a media type from the extension of a URL's path.
// Query strings and fragments are ignored.
func MediaTypeFromURL(raw string) MediaType {
	u, err := url.Parse(raw)
	if err != nil {
		return MediaTypeUnsupported
	}
	return MediaTypeFromFormat(path.Ext(u.Path))
}
