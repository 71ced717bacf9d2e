package chat

import (
	"fmt"
	"regexp"
	"strings"

	ports "github.com/lumachat/luma/luma/chat/ports"
)

// Guardrails screens outbound image requests against the content policy the
// developer turn states. A request that fails the screen is dropped the same
// way a malformed one is: the exchange still succeeds, text only.
type Guardrails struct {
	blockedWords  []string
	promptFilters []*regexp.Regexp
}

// NewGuardrails creates guardrails over the given blocked words. Nil or empty
// falls back to a default denylist.
func NewGuardrails(blockedWords []string) *Guardrails {
	if len(blockedWords) == 0 {
		blockedWords = []string{"gore", "beheading", "nsfw", "explicit nudity"}
	}
	return &Guardrails{
		blockedWords: blockedWords,
		promptFilters: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bphotorealistic\s+(minor|child)\b`),
		},
	}
}

// CheckImageRequest reports whether req may be dispatched to the image backend.
func (g *Guardrails) CheckImageRequest(req ports.ImageRequest) error {
	// The negative prompt is deliberately not screened: naming unwanted
	// content there is how callers steer away from it.
	lower := strings.ToLower(req.Prompt)
	for _, word := range g.blockedWords {
		if strings.Contains(lower, word) {
			return fmt.Errorf("image prompt contains blocked content: %s", word)
		}
	}

	for _, filter := range g.promptFilters {
		if filter.MatchString(req.Prompt) {
			return fmt.Errorf("image prompt matches blocked pattern")
		}
	}

	return nil
}
