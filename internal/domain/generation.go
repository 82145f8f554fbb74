package domain

import "context"

// Generator is the prompt-to-text contract of a generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// JSONGenerator is implemented by backends that can constrain a completion
// to a single JSON object. The prompt is sent alone, without a system prompt.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Entity is one tagged span found by an entity extractor.
type Entity struct {
	Text  string
	Label string
}

// Entity labels emitted by extractors.
const (
	LabelSkill         = "SKILL"
	LabelCertification = "CERTIFICATION"
)

// Entities is the output of an entity extractor. Skills and Certifications
// are deduplicated sets in sorted order; Entities keeps text order.
type Entities struct {
	Skills         []string
	Certifications []string
	Entities       []Entity
}

// EntityExtractor tags skills and certifications in free text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (Entities, error)
}
