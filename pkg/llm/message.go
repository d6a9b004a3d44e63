package llm

import (
	"encoding/json"
	"fmt"
)

// Role is the author of a conversational message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewMessage creates a message with the given role and content blocks.
func NewMessage(role Role, blocks ...ContentBlock) Message {
	content := make([]ContentBlock, 0, len(blocks))
	content = append(content, blocks...)
	return Message{Role: role, Content: content}
}

// NewUserMessage creates a user message holding a single text block.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, NewTextBlock(text))
}

// NewAssistantMessage creates an assistant message holding a single text block.
func NewAssistantMessage(text string) Message {
	return NewMessage(RoleAssistant, NewTextBlock(text))
}

// HasImage reports whether any content block is an image.
func (m Message) HasImage() bool {
	for _, b := range m.Content {
		if b.IsImage() {
			return true
		}
	}
	return false
}

// Text joins the message's text blocks with newlines.
func (m Message) Text() string {
	var text string
	for _, b := range m.Content {
		if b.Type != BlockTypeText {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += b.Text
	}
	return text
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	content := make([]ContentBlock, len(m.Content))
	for i, b := range m.Content {
		content[i] = b.Clone()
	}
	m.Content = content
	return m
}

// MarshalJSON always emits content as a block array.
func (m Message) MarshalJSON() ([]byte, error) {
	content := m.Content
	if content == nil {
		content = []ContentBlock{}
	}
	return json.Marshal(struct {
		Role    Role           `json:"role"`
		Content []ContentBlock `json:"content"`
	}{Role: m.Role, Content: content})
}

// UnmarshalJSON accepts content either as a block array or as a plain
// string, which becomes a single text block.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	m.Content = []ContentBlock{}

	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}

	switch raw.Content[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw.Content, &text); err != nil {
			return err
		}
		m.Content = append(m.Content, NewTextBlock(text))
	case '[':
		if err := json.Unmarshal(raw.Content, &m.Content); err != nil {
			return err
		}
	default:
		return fmt.Errorf("message content must be a string or an array of blocks")
	}

	return nil
}
