package llm

import (
	"encoding/json"
	"fmt"
)

// BlockType discriminates content blocks.
type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeImage BlockType = "image"
)

// EncodingKind says how an image block carries its bytes.
type EncodingKind string

const (
	EncodingBase64 EncodingKind = "base64"
	EncodingURL    EncodingKind = "url"
)

// ImageSource is the payload of an image content block.
type ImageSource struct {
	MediaType MediaType
	Encoding  EncodingKind

	// Data holds the base64 payload for EncodingBase64 and the URL for
	// EncodingURL.
	Data string
}

// ContentBlock is one typed unit of message content: either text or an image.
// Exactly one of Text (for BlockTypeText) or Image (for BlockTypeImage) is
// meaningful.
type ContentBlock struct {
	Type  BlockType
	Text  string
	Image *ImageSource
}

// NewTextBlock wraps text into a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// NewBase64ImageBlock wraps base64-encoded image data into an image block.
func NewBase64ImageBlock(mediaType MediaType, data string) ContentBlock {
	return ContentBlock{
		Type: BlockTypeImage,
		Image: &ImageSource{
			MediaType: mediaType,
			Encoding:  EncodingBase64,
			Data:      data,
		},
	}
}

// NewURLImageBlock wraps a remote image reference into an image block. The
// reference is passed through untouched; nothing is fetched.
func NewURLImageBlock(mediaType MediaType, url string) ContentBlock {
	return ContentBlock{
		Type: BlockTypeImage,
		Image: &ImageSource{
			MediaType: mediaType,
			Encoding:  EncodingURL,
			Data:      url,
		},
	}
}

// IsImage reports whether the block is an image block with a payload.
func (b ContentBlock) IsImage() bool {
	return b.Type == BlockTypeImage && b.Image != nil
}

// Clone returns a copy that shares no pointers with b.
func (b ContentBlock) Clone() ContentBlock {
	if b.Image != nil {
		img := *b.Image
		b.Image = &img
	}
	return b
}

// wireSource is the JSON shape of an image source. Base64 sources carry
// media_type and data; URL sources carry url only, which is what the
// Messages API accepts.
type wireSource struct {
	Type      EncodingKind `json:"type"`
	MediaType MediaType    `json:"media_type,omitempty"`
	Data      string       `json:"data,omitempty"`
	URL       string       `json:"url,omitempty"`
}

type wireBlock struct {
	Type   BlockType   `json:"type"`
	Text   *string     `json:"text,omitempty"`
	Source *wireSource `json:"source,omitempty"`
}

// MarshalJSON encodes the block in the Messages API wire format.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case BlockTypeText:
		text := b.Text
		return json.Marshal(wireBlock{Type: BlockTypeText, Text: &text})

	case BlockTypeImage:
		if b.Image == nil {
			return nil, fmt.Errorf("image block has no source")
		}
		src := &wireSource{Type: b.Image.Encoding}
		switch b.Image.Encoding {
		case EncodingBase64:
			src.MediaType = b.Image.MediaType
			src.Data = b.Image.Data
		case EncodingURL:
			src.URL = b.Image.Data
		default:
			return nil, fmt.Errorf("unknown image encoding %q", b.Image.Encoding)
		}
		return json.Marshal(wireBlock{Type: BlockTypeImage, Source: src})
	}

	return nil, fmt.Errorf("unknown content block type %q", b.Type)
}

// UnmarshalJSON decodes a wire block. URL sources are accepted with either
// the "url" or the "data" key; without a media_type the URL's extension
// decides.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case BlockTypeText:
		var text string
		if w.Text != nil {
			text = *w.Text
		}
		*b = NewTextBlock(text)
		return nil

	case BlockTypeImage:
		if w.Source == nil {
			return fmt.Errorf("image block has no source")
		}
		switch w.Source.Type {
		case EncodingBase64:
			*b = NewBase64ImageBlock(ParseMediaType(string(w.Source.MediaType)), w.Source.Data)
		case EncodingURL:
			url := w.Source.URL
			if url == "" {
				url = w.Source.Data
			}
			mediaType := ParseMediaType(string(w.Source.MediaType))
			if mediaType == MediaTypeUnsupported {
				mediaType = MediaTypeFromURL(url)
			}
			*b = NewURLImageBlock(mediaType, url)
		default:
			return fmt.Errorf("unknown image source type %q", w.Source.Type)
		}
		return nil
	}

	return fmt.Errorf("unknown content block type %q", w.Type)
}
