package llm

// RequestEnvelope is the pipeline's final output: a text-only system slot and
// the ordered conversational turns. It is built fresh per inference call and
// handed to the transport layer untouched.
type RequestEnvelope struct {
	System   *string   `json:"system,omitempty"` // Plain text only, never content blocks
	Messages []Message `json:"messages"`
}

// SystemText returns the system text, or "" when none was supplied.
func (e *RequestEnvelope) SystemText() string {
	if e == nil || e.System == nil {
		return ""
	}
	return *e.System
}

// Clone returns a deep copy of the envelope.
func (e *RequestEnvelope) Clone() *RequestEnvelope {
	out := &RequestEnvelope{Messages: make([]Message, len(e.Messages))}
	if e.System != nil {
		system := *e.System
		out.System = &system
	}
	for i, m := range e.Messages {
		out.Messages[i] = m.Clone()
	}
	return out
}

// ChatRequest is an envelope addressed to a specific upstream model.
type ChatRequest struct {
	Model     string `json:"model"`      // Upstream model identifier
	MaxTokens int    `json:"max_tokens"` // Max tokens to generate

	RequestEnvelope

	// Generation options
	Options *Options `json:"options,omitempty"`
}
