package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

func TestGuardrails_CheckImageRequest(t *testing.T) {
	guardrails := NewGuardrails([]string{"forbidden", "contraband"})

	tests := []struct {
		name    string
		req     ports.ImageRequest
		wantErr bool
	}{
		{
			"clean prompt",
			ports.ImageRequest{Prompt: "a watercolor sunset over the sea"},
			false,
		},
		{
			"blocked word",
			ports.ImageRequest{Prompt: "a pile of contraband"},
			true,
		},
		{
			"blocked word case insensitive",
			ports.ImageRequest{Prompt: "FORBIDDEN artifacts"},
			true,
		},
		{
			"negative prompt not screened",
			ports.ImageRequest{Prompt: "a sunset", NegativePrompt: "forbidden"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guardrails.CheckImageRequest(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGuardrails_DefaultDenylist(t *testing.T) {
	guardrails := NewGuardrails(nil)

	assert.NoError(t, guardrails.CheckImageRequest(ports.ImageRequest{Prompt: "a friendly robot"}))
	assert.Error(t, guardrails.CheckImageRequest(ports.ImageRequest{Prompt: "nsfw artwork"}))
}
