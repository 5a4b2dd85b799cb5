package orchestrator

// Inbound is the message envelope one turn is driven by.
type Inbound struct {
	ThreadID    string           `json:"thread_id"`
	UserInfoKey string           `json:"user_info"`
	Messages    []InboundMessage `json:"messages"`
}

type InboundMessage struct {
	// "text" or "reset"
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
