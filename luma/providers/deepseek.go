// Package providers implements the external inference collaborators: an
// OpenAI-compatible text-generation client and a Stable Diffusion client,
// each with a deterministic mock mode for offline development.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

// Sentinel errors for provider operations.
var (
	// ErrBackendUnavailable is returned when a backend cannot be reached or
	// answers with a non-success status.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrMalformedEnvelope is returned when a backend answers 200 but the
	// completion envelope cannot be interpreted.
	ErrMalformedEnvelope = errors.New("malformed completion envelope")
)

// DeepSeekConfig configures the text-generation client.
type DeepSeekConfig struct {
	Endpoint string
	Model    string
	// UseMocks serves deterministic canned replies instead of calling the
	// endpoint.
	UseMocks bool
	// EnableCatbotFallback substitutes a light-hearted canned reply for
	// transport failures instead of surfacing them.
	EnableCatbotFallback bool
	Timeout              time.Duration
}

// DeepSeekClient wraps an OpenAI-compatible chat completions endpoint.
type DeepSeekClient struct {
	cfg        DeepSeekConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewDeepSeekClient creates a text-generation client.
func NewDeepSeekClient(cfg DeepSeekConfig, logger zerolog.Logger) *DeepSeekClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &DeepSeekClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// UsesFallback reports whether the client serves placeholder replies.
func (c *DeepSeekClient) UsesFallback() bool { return c.cfg.UseMocks }

type chatCompletionRequest struct {
	Model    string       `json:"model"`
	Messages []ports.Turn `json:"messages"`
	Stream   bool         `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate posts the instruction sequence to the chat completions endpoint
// and returns the raw message content of the first choice.
func (c *DeepSeekClient) Generate(ctx context.Context, messages []ports.Turn) (string, error) {
	if c.cfg.UseMocks {
		return c.mockReply(messages), nil
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.cfg.EnableCatbotFallback && ctx.Err() == nil {
			c.logger.Warn().Err(err).Msg("text backend unreachable; serving catbot fallback")
			return c.catbotReply(messages), nil
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.cfg.EnableCatbotFallback {
			c.logger.Warn().Int("status", resp.StatusCode).
				Msg("text backend returned an error status; serving catbot fallback")
			return c.catbotReply(messages), nil
		}
		return "", fmt.Errorf("%w: unexpected status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var envelope chatCompletionResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedEnvelope)
	}

	return envelope.Choices[0].Message.Content, nil
}

// mockReply returns a deterministic payload for offline development. Messages
// that mention imagery also carry a canned image request so the downstream
// pipeline can be exercised end to end.
func (c *DeepSeekClient) mockReply(messages []ports.Turn) string {
	userMessage := ""
	if len(messages) > 0 {
		userMessage = messages[len(messages)-1].Content
	}

	suffix := ""
	if len(userMessage) > 200 {
		userMessage = userMessage[:200]
		suffix = "..."
	}

	payload := map[string]any{
		"assistant_response": "This is a mock response. You said: " + userMessage + suffix,
	}

	lower := strings.ToLower(userMessage)
	for _, keyword := range []string{"image", "illustration", "picture"} {
		if strings.Contains(lower, keyword) {
			payload["image_prompt"] = map[string]any{
				"prompt":              "Dreamy watercolor illustration of a friendly robot and a curious child.",
				"num_inference_steps": 24,
				"guidance_scale":      7.5,
			}
			break
		}
	}

	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

// catbotReply is the canned transport-failure stand-in.
func (c *DeepSeekClient) catbotReply(messages []ports.Turn) string {
	userMessage := ""
	if len(messages) > 0 {
		userMessage = messages[len(messages)-1].Content
	}
	return "Meow! The main engine is snoozing, but CatBot is here. Here's what I heard: " + userMessage
}

// Ensure DeepSeekClient implements the TextProvider interface.
var _ ports.TextProvider = (*DeepSeekClient)(nil)
