package image

import (
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/llm"
)

// DefaultBase64MediaType is assumed for inline base64 data that declares no
// media type.
const DefaultBase64MediaType = llm.MediaTypeJPEG

// Encoder turns classified sources into image content blocks.
type Encoder struct {
	validator *Validator
	logger    *zap.Logger
}

// NewEncoder creates an Encoder that validates local files with v. A nil
// validator gets the defaults, a nil logger discards output.
func NewEncoder(v *Validator, logger *zap.Logger) *Encoder {
	if v == nil {
		v = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{validator: v, logger: logger}
}

// Encode produces the image content block for src. Local files are validated,
// read and base64 encoded; URLs are passed through without fetching; inline
// base64 data is checked to decode. Failures are returned as *EncodingError.
func (e *Encoder) Encode(ctx context.Context, src Source) (llm.ContentBlock, error) {
	raw := strings.TrimSpace(src.Raw)

	switch src.Kind {
	case KindFilePath:
		return e.encodeFile(ctx, raw)
	case KindURL:
		return e.encodeURL(raw)
	case KindBase64:
		return e.encodeBase64(raw)
	}

	return llm.ContentBlock{}, &EncodingError{Kind: src.Kind, Reason: "unrecognised image source"}
}

func (e *Encoder) encodeFile(ctx context.Context, path string) (llm.ContentBlock, error) {
	if err := ctx.Err(); err != nil {
		return llm.ContentBlock{}, &EncodingError{Kind: KindFilePath, Reason: "cancelled", Err: err}
	}

	if res := e.validator.Validate(path); !res.Valid {
		e.logger.Debug("image validation failed",
			zap.String("path", path),
			zap.String("reason", res.Reason),
		)
		return llm.ContentBlock{}, &EncodingError{
			Kind:   KindFilePath,
			Reason: "validation failed",
			Err:    res.Err(path),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return llm.ContentBlock{}, &EncodingError{Kind: KindFilePath, Reason: "read failed", Err: err}
	}
	if len(data) == 0 {
		return llm.ContentBlock{}, &EncodingError{Kind: KindFilePath, Reason: "image file is empty"}
	}

	mediaType := llm.MediaTypeFromFormat(filepath.Ext(path))

	e.logger.Debug("encoded image file",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.String("media_type", string(mediaType)),
	)

	return llm.NewBase64ImageBlock(mediaType, base64.StdEncoding.EncodeToString(data)), nil
}

func (e *Encoder) encodeURL(raw string) (llm.ContentBlock, error) {
	if err := checkURL(raw); err != nil {
		return llm.ContentBlock{}, err
	}
	u, _ := url.Parse(raw)

	mediaType := llm.MediaTypeFromURL(raw)

	e.logger.Debug("passing image url through",
		zap.String("host", u.Host),
		zap.String("media_type", string(mediaType)),
	)

	return llm.NewURLImageBlock(mediaType, raw), nil
}

func (e *Encoder) encodeBase64(raw string) (llm.ContentBlock, error) {
	mediaType := DefaultBase64MediaType
	data := raw

	if strings.HasPrefix(strings.ToLower(raw), "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok {
			return llm.ContentBlock{}, &EncodingError{Kind: KindBase64, Reason: "data uri has no payload"}
		}
		declared, _, _ := strings.Cut(strings.TrimPrefix(strings.ToLower(header), "data:"), ";")
		mediaType = llm.ParseMediaType(declared)
		if !mediaType.Supported() {
			return llm.ContentBlock{}, &EncodingError{Kind: KindBase64, Reason: "unsupported media type " + declared}
		}
		data = payload
	}

	// Wrapped base64 is unwrapped; the Messages API rejects line breaks.
	data = strings.NewReplacer("\r", "", "\n", "").Replace(strings.TrimSpace(data))
	if err := checkBase64(data); err != nil {
		return llm.ContentBlock{}, err
	}

	e.logger.Debug("passing base64 image through",
		zap.Int("length", len(data)),
		zap.String("media_type", string(mediaType)),
	)

	return llm.NewBase64ImageBlock(mediaType, data), nil
}
