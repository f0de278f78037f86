package explain

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Explainer produces a natural-language fraud rationale for a transcript.
// The returned text is best-effort model output and must go through
// ParseReason before anything trusts its shape.
type Explainer interface {
	Explain(ctx context.Context, transcript string) (string, error)
}

// DefaultReason is used when the provider responds with a valid object that
// omits the reason key.
const DefaultReason = "No reason provided by AI"

var (
	// ErrUnparseable means no key-value structure could be recovered from
	// the provider output.
	ErrUnparseable = errors.New("explanation output is not a JSON object")

	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*?\}`)
)

// buildPrompt renders the analysis instruction for a call transcript.
func buildPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an AI fraud detection assistant.\n")
	b.WriteString("Given the following phone call transcript, analyze whether it is a fraud attempt.\n")
	b.WriteString("Respond ONLY in a valid JSON format with two keys:\n")
	b.WriteString("- \"fraud_probability\": integer between 0 and 100\n")
	b.WriteString("- \"reason\": a short explanation (2-5 sentences max)\n\n")
	b.WriteString("Do NOT include markdown, code blocks, or extra commentary.\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nRespond in JSON only:")
	return b.String()
}

// ParseReason normalizes raw provider output into a reason string. Models
// wrap JSON in code fences or pad it with commentary more often than not, so
// parsing is layered: strip fences, parse directly, then fall back to
// extracting the first object-looking block.
func ParseReason(raw string) (string, error) {
	text := stripCodeFences(strings.TrimSpace(raw))

	obj, ok := parseObject(text)
	if !ok {
		if match := jsonObjectPattern.FindString(text); match != "" {
			obj, ok = parseObject(match)
		}
	}
	if !ok {
		return "", ErrUnparseable
	}

	reason, ok := obj["reason"].(string)
	if !ok || reason == "" {
		return DefaultReason, nil
	}
	return reason, nil
}

func parseObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

func stripCodeFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	} else {
		return text
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
