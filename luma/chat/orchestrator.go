package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

// ErrInvalidRequest marks caller-supplied input that violates the request
// contract. It is the only failure class HandleChat surfaces to the caller;
// backend trouble degrades into the outcome instead.
var ErrInvalidRequest = errors.New("invalid chat request")

// unavailableMessage is the fixed reply returned when the text backend cannot
// be reached at all.
const unavailableMessage = "The text generation endpoint is unavailable. " +
	"Please ensure the inference server is running and try again."

const maxConversationKeyLength = 256

// ChatOutcome is the final result of one chat exchange.
type ChatOutcome struct {
	Text         string    `json:"assistant_response"`
	ImageJobID   string    `json:"image_job_id,omitempty"`
	ImageURLs    []string  `json:"image_urls"`
	UsedFallback bool      `json:"used_mocks"`
	CreatedAt    time.Time `json:"created_at"`
}

// Options configures orchestrator behavior.
type Options struct {
	// ImageGenerationEnabled gates dispatch of embedded image requests. When
	// false they are silently dropped.
	ImageGenerationEnabled bool
}

// Orchestrator coordinates one chat exchange: history lookup, prompt
// assembly, the text backend call, tolerant reply parsing, the history
// update, and optional image generation.
type Orchestrator struct {
	store        ports.HistoryStore
	builder      *PromptBuilder
	parser       *ReplyParser
	guardrails   *Guardrails
	text         ports.TextProvider
	image        ports.ImageProvider
	tracer       ports.Tracer
	logger       zerolog.Logger
	imageEnabled bool
}

// NewOrchestrator creates an orchestrator with its dependencies. image may be
// nil when no image backend is configured; guardrails may be nil to skip the
// content screen.
func NewOrchestrator(
	store ports.HistoryStore,
	builder *PromptBuilder,
	parser *ReplyParser,
	guardrails *Guardrails,
	text ports.TextProvider,
	image ports.ImageProvider,
	tracer ports.Tracer,
	logger zerolog.Logger,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		store:        store,
		builder:      builder,
		parser:       parser,
		guardrails:   guardrails,
		text:         text,
		image:        image,
		tracer:       tracer,
		logger:       logger,
		imageEnabled: opts.ImageGenerationEnabled,
	}
}

// ValidateRequest checks the caller-facing request contract: a conversation
// key of 1-256 characters and a non-empty message.
func ValidateRequest(conversationKey, message string) error {
	if l := len(conversationKey); l < 1 || l > maxConversationKeyLength {
		return fmt.Errorf("%w: conversation key must be 1-%d characters, got %d",
			ErrInvalidRequest, maxConversationKeyLength, l)
	}
	if message == "" {
		return fmt.Errorf("%w: message must not be empty", ErrInvalidRequest)
	}
	return nil
}

// HandleChat runs one full exchange for conversationKey. The returned error
// is non-nil only for invalid input or a cancelled context; backend failures
// produce a degraded-but-successful outcome. On the degraded path the failed
// exchange is not recorded in history.
func (o *Orchestrator) HandleChat(ctx context.Context, conversationKey, message string) (ChatOutcome, error) {
	if err := ValidateRequest(conversationKey, message); err != nil {
		return ChatOutcome{}, err
	}

	history := o.store.GetHistory(conversationKey)
	messages := o.builder.Build(history, message)

	spanCtx, finish := o.tracer.StartSpan(ctx, "text_generate", map[string]any{
		"conversation_key": conversationKey,
		"history_turns":    len(history),
	})
	raw, err := o.text.Generate(spanCtx, messages)
	finish(err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ChatOutcome{}, ctxErr
		}
		o.logger.Error().Err(err).Str("conversation_key", conversationKey).
			Msg("text backend request failed")
		return ChatOutcome{
			Text:         unavailableMessage,
			ImageURLs:    []string{},
			UsedFallback: true,
			CreatedAt:    time.Now().UTC(),
		}, nil
	}

	reply := o.parser.Parse(raw)

	// A cancelled request must not leave a half-recorded exchange behind.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ChatOutcome{}, ctxErr
	}

	o.store.AppendExchange(conversationKey, message, reply.Text)

	outcome := ChatOutcome{
		Text:      reply.Text,
		ImageURLs: []string{},
		CreatedAt: time.Now().UTC(),
	}

	if reply.ImageRequest != nil {
		outcome.ImageJobID, outcome.ImageURLs = o.dispatchImage(ctx, conversationKey, *reply.ImageRequest)
	}

	outcome.UsedFallback = o.text.UsesFallback() || (o.image != nil && o.image.UsesFallback())
	return outcome, nil
}

// Reset clears the conversation history for conversationKey.
func (o *Orchestrator) Reset(conversationKey string) error {
	if l := len(conversationKey); l < 1 || l > maxConversationKeyLength {
		return fmt.Errorf("%w: conversation key must be 1-%d characters, got %d",
			ErrInvalidRequest, maxConversationKeyLength, l)
	}
	o.store.Reset(conversationKey)
	return nil
}

// dispatchImage runs the embedded image request when image generation is
// enabled and the request passes the guardrail screen. Image backend failure
// degrades to "no image" rather than failing the exchange.
func (o *Orchestrator) dispatchImage(ctx context.Context, conversationKey string, req ports.ImageRequest) (jobID string, urls []string) {
	urls = []string{}

	if !o.imageEnabled || o.image == nil {
		o.logger.Debug().Str("conversation_key", conversationKey).
			Msg("image generation disabled; dropping image request")
		return "", urls
	}

	if o.guardrails != nil {
		if err := o.guardrails.CheckImageRequest(req); err != nil {
			o.logger.Warn().Err(err).Str("conversation_key", conversationKey).
				Msg("image request rejected by guardrails")
			return "", urls
		}
	}

	spanCtx, finish := o.tracer.StartSpan(ctx, "image_generate", map[string]any{
		"conversation_key": conversationKey,
	})
	result, err := o.image.Generate(spanCtx, req)
	finish(err)
	if err != nil {
		o.logger.Warn().Err(err).Str("conversation_key", conversationKey).
			Msg("image backend request failed; returning text only")
		return "", urls
	}

	return result.JobID, result.URLs
}
