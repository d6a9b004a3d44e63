package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/papercomputeco/lens/pkg/llm"
)

// Bucket types.
const (
	BucketTypeSystem  = "system"
	BucketTypeMessage = "message"
)

// DigestPrefix marks inline image data replaced by its digest.
const DigestPrefix = "sha256:"

// Bucket is the hashable content of a node: one system prompt or one
// conversational message, addressed to a model.
type Bucket struct {
	Type    string             `json:"type"`
	Role    llm.Role           `json:"role"`
	Content []llm.ContentBlock `json:"content"`
	Model   string             `json:"model,omitempty"`
}

// NewSystemBucket creates a bucket for a system prompt.
func NewSystemBucket(model, text string) Bucket {
	return Bucket{
		Type:    BucketTypeSystem,
		Role:    llm.RoleSystem,
		Content: []llm.ContentBlock{llm.NewTextBlock(text)},
		Model:   model,
	}
}

// NewMessageBucket creates a bucket for msg. Inline base64 image data is
// replaced by its sha256 digest so the ledger stays small and the same image
// always hashes the same way; URL references are kept as they are.
func NewMessageBucket(model string, msg llm.Message) Bucket {
	content := make([]llm.ContentBlock, len(msg.Content))
	for i, b := range msg.Content {
		content[i] = redact(b)
	}
	return Bucket{
		Type:    BucketTypeMessage,
		Role:    msg.Role,
		Content: content,
		Model:   model,
	}
}

// Text joins the bucket's text blocks.
func (b Bucket) Text() string {
	return llm.Message{Role: b.Role, Content: b.Content}.Text()
}

// ImageCount returns the number of image blocks in the bucket.
func (b Bucket) ImageCount() int {
	n := 0
	for _, c := range b.Content {
		if c.IsImage() {
			n++
		}
	}
	return n
}

func redact(b llm.ContentBlock) llm.ContentBlock {
	b = b.Clone()
	if !b.IsImage() || b.Image.Encoding != llm.EncodingBase64 {
		return b
	}
	if strings.HasPrefix(b.Image.Data, DigestPrefix) {
		return b
	}
	sum := sha256.Sum256([]byte(b.Image.Data))
	b.Image.Data = DigestPrefix + hex.EncodeToString(sum[:])
	return b
}
