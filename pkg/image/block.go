package image

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/papercomputeco/lens/pkg/llm"
)

// CheckBlock verifies an image block that did not come out of the Encoder,
// such as one supplied in a caller's conversation. Base64 blocks need a
// whitelisted media type and non-empty data in the standard alphabet
// without line breaks; URL blocks need an absolute URL with a host. Text
// blocks always pass.
func CheckBlock(b llm.ContentBlock) error {
	switch b.Type {
	case llm.BlockTypeText:
		return nil
	case llm.BlockTypeImage:
	default:
		return &EncodingError{Kind: KindUnknown, Reason: "unknown content block type " + string(b.Type)}
	}
	if b.Image == nil {
		return &EncodingError{Kind: KindUnknown, Reason: "image block has no source"}
	}

	switch b.Image.Encoding {
	case llm.EncodingBase64:
		if !b.Image.MediaType.Supported() {
			return &EncodingError{Kind: KindBase64, Reason: "unsupported media type " + string(b.Image.MediaType)}
		}
		return checkBase64(b.Image.Data)
	case llm.EncodingURL:
		return checkURL(b.Image.Data)
	}
	return &EncodingError{Kind: KindUnknown, Reason: "unknown image encoding " + string(b.Image.Encoding)}
}

func checkBase64(data string) error {
	if data == "" {
		return &EncodingError{Kind: KindBase64, Reason: "empty payload"}
	}
	if strings.ContainsAny(data, "\r\n") {
		return &EncodingError{Kind: KindBase64, Reason: "payload contains line breaks"}
	}
	if _, err := base64.StdEncoding.Strict().DecodeString(data); err != nil {
		return &EncodingError{Kind: KindBase64, Reason: "invalid base64", Err: err}
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &EncodingError{Kind: KindURL, Reason: "malformed url", Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return &EncodingError{Kind: KindURL, Reason: "url must be absolute with a host"}
	}
	return nil
}
