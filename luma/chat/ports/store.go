package chatports

// Speaker roles for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a conversation, tagged with its speaker role.
// The optional Name labels a sub-role within Role, e.g. a "developer" system turn.
type Turn struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// HistoryStore keeps a bounded per-conversation window of recent turns.
//
// Implementations must be safe for concurrent use: independent keys proceed
// without interference, and the user/assistant pair written by AppendExchange
// must never interleave with another exchange for the same key.
type HistoryStore interface {
	// GetHistory returns a snapshot of the log for key, oldest first.
	// Unseen keys yield an empty sequence. No side effects.
	GetHistory(key string) []Turn

	// Append adds one turn to the log for key, creating the log if absent,
	// then evicts the oldest turns until the configured bound holds.
	Append(key, role, content string)

	// AppendExchange records a completed exchange: the user turn followed by
	// the assistant turn, atomically with respect to other writers of key.
	AppendExchange(key, userMessage, assistantText string)

	// Reset deletes the log for key entirely. No-op for unseen keys.
	Reset(key string)
}
