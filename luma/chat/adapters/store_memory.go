package adapters

import (
	"sync"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

// MemoryHistoryStore keeps bounded conversation logs in process memory,
// keyed by conversation key. Each log holds at most 2×historyLimit turns;
// the oldest turns are evicted first.
//
// A single mapping-wide mutex serializes all mutation. AppendExchange holds
// it across the user/assistant pair, so two concurrent exchanges for the
// same key cannot interleave their turns.
type MemoryHistoryStore struct {
	mu    sync.RWMutex
	limit int
	logs  map[string][]ports.Turn
}

// NewMemoryHistoryStore creates a store bounded to historyLimit exchanges.
// A limit of 0 is valid and makes every append evict down to an empty log.
func NewMemoryHistoryStore(historyLimit int) *MemoryHistoryStore {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &MemoryHistoryStore{
		limit: historyLimit,
		logs:  make(map[string][]ports.Turn),
	}
}

// GetHistory returns a snapshot copy of the log for key, oldest first.
func (s *MemoryHistoryStore) GetHistory(key string) []ports.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[key]
	if len(log) == 0 {
		return nil
	}
	out := make([]ports.Turn, len(log))
	copy(out, log)
	return out
}

// Append adds one turn to the log for key and enforces the bound.
func (s *MemoryHistoryStore) Append(key, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(key, ports.Turn{Role: role, Content: content})
}

// AppendExchange records the user turn followed by the assistant turn under
// one critical section.
func (s *MemoryHistoryStore) AppendExchange(key, userMessage, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(key, ports.Turn{Role: ports.RoleUser, Content: userMessage})
	s.appendLocked(key, ports.Turn{Role: ports.RoleAssistant, Content: assistantText})
}

// Reset deletes the log for key entirely.
func (s *MemoryHistoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, key)
}

func (s *MemoryHistoryStore) appendLocked(key string, turn ports.Turn) {
	log := append(s.logs[key], turn)
	if bound := 2 * s.limit; len(log) > bound {
		log = log[len(log)-bound:]
	}
	s.logs[key] = log
}

// Ensure MemoryHistoryStore implements the HistoryStore interface.
var _ ports.HistoryStore = (*MemoryHistoryStore)(nil)
