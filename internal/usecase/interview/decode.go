package interview

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// stripFence removes a markdown code fence some models wrap around JSON.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &obj); err != nil {
		return nil, fmt.Errorf("output is not a JSON object: %w: %w", domain.ErrGenerationFailed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("output is null: %w", domain.ErrGenerationFailed)
	}
	return obj, nil
}

// decodeText reads a non-blank string field. When the model nests the value
// in an object, the first non-blank string among fallbacks is taken instead.
func decodeText(raw, field string, fallbacks ...string) (string, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return "", err
	}
	v, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("field %q is missing: %w", field, domain.ErrGenerationFailed)
	}

	var text string
	if err := json.Unmarshal(v, &text); err == nil {
		if text = strings.TrimSpace(text); text == "" {
			return "", fmt.Errorf("field %q is empty: %w", field, domain.ErrGenerationFailed)
		}
		return text, nil
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(v, &nested); err == nil {
		for _, f := range fallbacks {
			var s string
			if json.Unmarshal(nested[f], &s) == nil && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), nil
			}
		}
	}
	return "", fmt.Errorf("field %q holds no text: %w", field, domain.ErrGenerationFailed)
}

type matchOutput struct {
	MatchScore *float64 `json:"matchScore"`
	Highlights []string `json:"highlights"`
}

// decodeMatch requires a score in [0, 100] and at least one highlight.
// Fractional scores are rounded; blank highlights are dropped.
func decodeMatch(raw string) (Match, error) {
	var out matchOutput
	if err := json.Unmarshal([]byte(stripFence(raw)), &out); err != nil {
		return Match{}, fmt.Errorf("output is not a match object: %w: %w", domain.ErrGenerationFailed, err)
	}
	if out.MatchScore == nil {
		return Match{}, fmt.Errorf("field \"matchScore\" is missing: %w", domain.ErrGenerationFailed)
	}
	score := *out.MatchScore
	if score < 0 || score > 100 {
		return Match{}, fmt.Errorf("match score %g outside [0, 100]: %w", score, domain.ErrGenerationFailed)
	}

	highlights := make([]string, 0, len(out.Highlights))
	for _, h := range out.Highlights {
		if h = strings.TrimSpace(h); h != "" {
			highlights = append(highlights, h)
		}
	}
	if len(highlights) == 0 {
		return Match{}, fmt.Errorf("no highlights: %w", domain.ErrGenerationFailed)
	}

	return Match{Score: int(math.Round(score)), Highlights: highlights}, nil
}
