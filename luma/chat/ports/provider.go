package chatports

import (
	"context"
)

// ImageRequest is the structured directive the text model may emit when it
// decides an accompanying image would help. Wire keys follow the diffusion
// server's API.
type ImageRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Steps          int     `json:"num_inference_steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Seed           *int64  `json:"seed,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
}

// ImageResult is the metadata returned by an image backend for one job.
type ImageResult struct {
	JobID    string   `json:"job_id"`
	URLs     []string `json:"urls"`
	Provider string   `json:"provider"`
}

// TextProvider is the abstraction for the text-generation backend.
type TextProvider interface {
	// Generate produces the raw reply string for an ordered instruction
	// sequence. The reply may or may not be well-formed JSON; interpreting
	// it is the caller's concern.
	Generate(ctx context.Context, messages []Turn) (string, error)

	// UsesFallback reports whether the provider is serving placeholder
	// responses instead of real inference.
	UsesFallback() bool
}

// ImageProvider is the abstraction for the image-generation backend.
type ImageProvider interface {
	Generate(ctx context.Context, req ImageRequest) (ImageResult, error)
	UsesFallback() bool
}
