// Package llm provides the internal representations of vision LLM inference
// requests and responses: content blocks, conversational messages and the
// request envelope handed to the transport layer.
package llm

// ErrorResponse represents an error returned to API clients.
type ErrorResponse struct {
	Error string `json:"error"`
}
