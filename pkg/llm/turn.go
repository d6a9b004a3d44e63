package llm

// ConversationTurn is a forwarded request paired with the upstream response,
// as recorded in the request ledger.
type ConversationTurn struct {
	Request  *ChatRequest  `json:"request"`
	Response *ChatResponse `json:"response"`
}
