package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

func TestPromptBuilder_Build(t *testing.T) {
	builder := NewPromptBuilder()

	history := []ports.Turn{
		{Role: ports.RoleUser, Content: "earlier question"},
		{Role: ports.RoleAssistant, Content: "earlier answer"},
	}

	messages := builder.Build(history, "new question")
	require.Len(t, messages, 5)

	// Two fixed system turns come first, in order.
	assert.Equal(t, ports.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "image_prompt")
	assert.Equal(t, ports.RoleSystem, messages[1].Role)
	assert.Equal(t, "developer", messages[1].Name)
	assert.Contains(t, messages[1].Content, "image_prompt")
	assert.Contains(t, messages[1].Content, "disallowed")

	// History is carried verbatim, then the new user turn.
	assert.Equal(t, history[0], messages[2])
	assert.Equal(t, history[1], messages[3])
	assert.Equal(t, ports.Turn{Role: ports.RoleUser, Content: "new question"}, messages[4])
}

func TestPromptBuilder_BuildEmptyHistory(t *testing.T) {
	builder := NewPromptBuilder()

	messages := builder.Build(nil, "hello")
	require.Len(t, messages, 3)
	assert.Equal(t, ports.RoleSystem, messages[0].Role)
	assert.Equal(t, ports.RoleSystem, messages[1].Role)
	assert.Equal(t, ports.RoleUser, messages[2].Role)
	assert.Equal(t, "hello", messages[2].Content)
}

func TestPromptBuilder_BuildDoesNotMutateHistory(t *testing.T) {
	builder := NewPromptBuilder()

	history := []ports.Turn{{Role: ports.RoleUser, Content: "original"}}
	messages := builder.Build(history, "next")
	messages[2].Content = "changed"

	assert.Equal(t, "original", history[0].Content)
}

func TestPromptBuilder_BuildIsDeterministic(t *testing.T) {
	builder := NewPromptBuilder()

	first := builder.Build(nil, "same input")
	second := builder.Build(nil, "same input")
	assert.Equal(t, first, second)
}
