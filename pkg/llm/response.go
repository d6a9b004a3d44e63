package llm

// ChatResponse represents a completed (non-streaming) upstream response.
type ChatResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`       // Model that generated the response
	Role       Role           `json:"role"`        // Always "assistant"
	Content    []ContentBlock `json:"content"`     // Text blocks of the reply
	StopReason string         `json:"stop_reason"` // end_turn, max_tokens, stop_sequence, ...
	Usage      Usage          `json:"usage"`
}

// Usage holds upstream token accounting.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Text joins the response's text blocks.
func (r *ChatResponse) Text() string {
	return Message{Role: r.Role, Content: r.Content}.Text()
}
