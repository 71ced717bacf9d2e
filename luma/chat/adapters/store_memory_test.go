package adapters

import (
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

func TestMemoryHistoryStore_GetHistoryUnseenKey(t *testing.T) {
	store := NewMemoryHistoryStore(10)

	assert.Empty(t, store.GetHistory("nobody"))
	assert.Empty(t, store.GetHistory(""))
}

func TestMemoryHistoryStore_AppendAndGet(t *testing.T) {
	store := NewMemoryHistoryStore(10)

	store.Append("alice", ports.RoleUser, "hello")
	store.Append("alice", ports.RoleAssistant, "hi there")

	history := store.GetHistory("alice")
	require.Len(t, history, 2)
	assert.Equal(t, ports.Turn{Role: "user", Content: "hello"}, history[0])
	assert.Equal(t, ports.Turn{Role: "assistant", Content: "hi there"}, history[1])

	// Other keys are unaffected.
	assert.Empty(t, store.GetHistory("bob"))
}

func TestMemoryHistoryStore_FIFOEviction(t *testing.T) {
	const limit = 3
	store := NewMemoryHistoryStore(limit)

	for i := 0; i < 10; i++ {
		store.Append("alice", ports.RoleUser, fmt.Sprintf("msg-%d", i))
	}

	history := store.GetHistory("alice")
	require.Len(t, history, 2*limit)

	// The most recent 2*limit appends survive, in original order.
	for i, turn := range history {
		assert.Equal(t, fmt.Sprintf("msg-%d", 10-2*limit+i), turn.Content)
	}
}

func TestMemoryHistoryStore_ZeroLimitIsStateless(t *testing.T) {
	store := NewMemoryHistoryStore(0)

	store.Append("alice", ports.RoleUser, "hello")
	assert.Empty(t, store.GetHistory("alice"))

	store.AppendExchange("alice", "hello", "hi")
	assert.Empty(t, store.GetHistory("alice"))
}

func TestMemoryHistoryStore_NegativeLimitClampedToZero(t *testing.T) {
	store := NewMemoryHistoryStore(-5)

	store.Append("alice", ports.RoleUser, "hello")
	assert.Empty(t, store.GetHistory("alice"))
}

func TestMemoryHistoryStore_Reset(t *testing.T) {
	store := NewMemoryHistoryStore(10)

	store.Append("alice", ports.RoleUser, "hello")
	store.Reset("alice")
	assert.Empty(t, store.GetHistory("alice"))

	// Reset of an unseen key is a no-op.
	store.Reset("never-seen")
	assert.Empty(t, store.GetHistory("never-seen"))
}

func TestMemoryHistoryStore_GetHistoryIsIdempotent(t *testing.T) {
	store := NewMemoryHistoryStore(10)
	store.AppendExchange("alice", "hello", "hi")

	first := store.GetHistory("alice")
	second := store.GetHistory("alice")
	assert.Equal(t, first, second)
}

func TestMemoryHistoryStore_SnapshotIsACopy(t *testing.T) {
	store := NewMemoryHistoryStore(10)
	store.AppendExchange("alice", "hello", "hi")

	snapshot := store.GetHistory("alice")
	snapshot[0].Content = "mutated"

	history := store.GetHistory("alice")
	assert.Equal(t, "hello", history[0].Content)
}

func TestMemoryHistoryStore_ConcurrentExchangesDoNotInterleave(t *testing.T) {
	const (
		limit      = 50
		goroutines = 20
		exchanges  = 10
	)
	store := NewMemoryHistoryStore(limit)

	var wg conc.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Go(func() {
			for i := 0; i < exchanges; i++ {
				store.AppendExchange("shared", "question", "answer")
			}
		})
	}
	wg.Wait()

	history := store.GetHistory("shared")
	require.Len(t, history, 2*limit)

	// Every exchange pair must stay adjacent: user turn, then assistant turn.
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, ports.RoleUser, history[i].Role)
		assert.Equal(t, ports.RoleAssistant, history[i+1].Role)
	}
}

func TestMemoryHistoryStore_ConcurrentIndependentKeys(t *testing.T) {
	store := NewMemoryHistoryStore(100)

	var wg conc.WaitGroup
	for g := 0; g < 10; g++ {
		key := fmt.Sprintf("user-%d", g)
		wg.Go(func() {
			for i := 0; i < 20; i++ {
				store.AppendExchange(key, "question", "answer")
			}
		})
	}
	wg.Wait()

	for g := 0; g < 10; g++ {
		assert.Len(t, store.GetHistory(fmt.Sprintf("user-%d", g)), 40)
	}
}
