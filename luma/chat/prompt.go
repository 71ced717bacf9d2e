package chat

import (
	ports "github.com/lumachat/luma/luma/chat/ports"
)

const systemPrompt = "You are an offline-friendly multimodal assistant running on " +
	"user-controlled hardware. Provide helpful, concise answers. When appropriate, " +
	"propose an `image_prompt` JSON object describing imagery that would complement " +
	"your response."

const developerPrompt = "If you decide an illustration would help, respond with " +
	"valid JSON under the key `image_prompt` alongside your natural language reply. " +
	"Only request imagery that aligns with the user's instructions and avoid " +
	"disallowed or unsafe content."

// PromptBuilder assembles the ordered instruction sequence sent to the text
// backend for one exchange.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder { return &PromptBuilder{} }

// Build prepends the two fixed system turns, then the supplied history
// verbatim, then one user turn carrying userMessage. Pure; inputs are not
// mutated.
func (b *PromptBuilder) Build(history []ports.Turn, userMessage string) []ports.Turn {
	messages := make([]ports.Turn, 0, len(history)+3)
	messages = append(messages,
		ports.Turn{Role: ports.RoleSystem, Content: systemPrompt},
		ports.Turn{Role: ports.RoleSystem, Name: "developer", Content: developerPrompt},
	)
	messages = append(messages, history...)
	messages = append(messages, ports.Turn{Role: ports.RoleUser, Content: userMessage})
	return messages
}
