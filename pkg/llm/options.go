package llm

// Options contains model inference parameters passed through to the upstream.
type Options struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-1.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	TopK        *int     `json:"top_k,omitempty"`       // Top-k sampling

	// Stop sequences
	StopSequences []string `json:"stop_sequences,omitempty"` // Stop generation at these sequences
}
