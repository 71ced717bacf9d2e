package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

// AssistantReply is the parser's interpretation of one raw backend reply:
// either plain text, or text plus an embedded image request.
type AssistantReply struct {
	Text         string
	ImageRequest *ports.ImageRequest
}

// Defaults applied to image requests that omit sampling parameters.
const (
	DefaultImageSteps         = 24
	DefaultImageGuidanceScale = 7.5
)

// Bounds enforced on embedded image requests.
const imageRequestSchema = `{
	"type": "object",
	"required": ["prompt"],
	"properties": {
		"prompt": {"type": "string", "minLength": 1},
		"negative_prompt": {"type": "string"},
		"num_inference_steps": {"type": "integer", "minimum": 1, "maximum": 150},
		"guidance_scale": {"type": "number", "minimum": 0, "maximum": 50},
		"seed": {"type": "integer", "minimum": 0},
		"width": {"type": "integer", "minimum": 64},
		"height": {"type": "integer", "minimum": 64}
	}
}`

// ReplyParser extracts structured intent from raw text-backend output. The
// backend is not trusted to produce well-formed JSON: any input string is
// valid input, and Parse never fails.
type ReplyParser struct {
	schema *gojsonschema.Schema
	logger zerolog.Logger
}

// NewReplyParser creates a parser with the embedded image-request schema.
func NewReplyParser(logger zerolog.Logger) *ReplyParser {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(imageRequestSchema))
	if err != nil {
		// The schema is a compile-time constant; failure here is a bug.
		panic(fmt.Sprintf("chat: invalid image request schema: %v", err))
	}
	return &ReplyParser{schema: schema, logger: logger}
}

// Parse interprets a raw reply. Known envelope variants are tried in priority
// order: the native "assistant_response" shape, the completion choice shape,
// then "content"/"message" fields. Anything that does not decode as a JSON
// object is returned verbatim as plain text. A malformed embedded image
// request is logged and dropped; it never fails the parse.
func (p *ReplyParser) Parse(raw string) AssistantReply {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AssistantReply{}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return AssistantReply{Text: trimmed}
	}

	reply := AssistantReply{Text: p.extractText(payload)}
	if reply.Text == "" {
		p.logger.Warn().Msg("backend payload missing assistant response; defaulting to empty text")
	}

	if rawReq, ok := payload["image_prompt"]; ok && !bytes.Equal(bytes.TrimSpace(rawReq), []byte("null")) {
		req, err := p.decodeImageRequest(rawReq)
		if err != nil {
			p.logger.Warn().Err(err).Msg("dropping malformed image request")
		} else {
			reply.ImageRequest = req
		}
	}

	return reply
}

// extractText resolves the textual reply from a decoded payload.
func (p *ReplyParser) extractText(payload map[string]json.RawMessage) string {
	if text, ok := stringField(payload, "assistant_response"); ok {
		return text
	}

	// Backend-native completion envelope: choices[0].message.content.
	if rawChoices, ok := payload["choices"]; ok {
		var choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal(rawChoices, &choices); err == nil && len(choices) > 0 {
			return choices[0].Message.Content
		}
	}

	if text, ok := stringField(payload, "content"); ok {
		return text
	}
	if text, ok := stringField(payload, "message"); ok {
		return text
	}
	return ""
}

// decodeImageRequest validates and decodes an embedded image request,
// applying defaults for omitted sampling parameters.
func (p *ReplyParser) decodeImageRequest(raw json.RawMessage) (*ports.ImageRequest, error) {
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("image request is not a JSON object: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("image request failed validation: %s", strings.Join(issues, "; "))
	}

	req := ports.ImageRequest{
		Steps:         DefaultImageSteps,
		GuidanceScale: DefaultImageGuidanceScale,
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("image request decode failed: %w", err)
	}
	return &req, nil
}

func stringField(payload map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := payload[key]
	if !ok {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil || text == "" {
		return "", false
	}
	return text, true
}
