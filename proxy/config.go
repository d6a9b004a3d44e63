package proxy

// Config is the proxy server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Upstream Messages API base URL (e.g., "https://api.anthropic.com")
	UpstreamURL string

	// DBPath is the path to the SQLite request ledger.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	DBPath string

	// Model and MaxTokens are used when a request does not name them.
	Model     string
	MaxTokens int

	// MaxRetries is passed to the upstream client.
	MaxRetries int
}
