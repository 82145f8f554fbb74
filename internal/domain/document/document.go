package document

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Size limits for indexed documents.
const (
	MaxIDLength    = 256
	MaxContentSize = 163840 // 160KB
)

// Document is a corpus entry (resume, posting, reference answer) owned by the
// vector index once inserted. Immutable value object.
type Document struct {
	id   string
	text string
}

// New validates and creates a Document.
// The ID is opaque: any non-blank string up to MaxIDLength bytes.
// Text may be empty (vectors can be indexed without raw text) but is capped at MaxContentSize.
func New(id, text string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("document ID is required: %w", domain.ErrInvalidInput)
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d): %w", MaxIDLength, domain.ErrInvalidInput)
	}
	if len(text) > MaxContentSize {
		return Document{}, fmt.Errorf("document %q text too large (max %d bytes): %w",
			id, MaxContentSize, domain.ErrInvalidInput)
	}
	return Document{id: id, text: text}, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Text returns the raw document text.
func (d *Document) Text() string { return d.text }
