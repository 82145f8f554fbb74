package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("doc_123", "Senior Go engineer, 7 years")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "doc_123" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Text() != "Senior Go engineer, 7 years" {
		t.Errorf("Text() = %q", doc.Text())
	}
}

func TestNew_OpaqueIDs(t *testing.T) {
	for _, id := range []string{"has space", "слово", "doc.id", "doc/id", "search"} {
		if _, err := New(id, "text"); err != nil {
			t.Errorf("unexpected error for ID %q: %v", id, err)
		}
	}
}

func TestNew_EmptyID(t *testing.T) {
	for _, id := range []string{"", "   "} {
		_, err := New(id, "content")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ID %q: expected ErrInvalidInput, got %v", id, err)
		}
	}
}

func TestNew_IDTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxIDLength+1), "content")
	if err == nil {
		t.Fatal("expected error for ID too long")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_EmptyTextAllowed(t *testing.T) {
	if _, err := New("doc-1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_ContentTooLarge(t *testing.T) {
	_, err := New("doc-1", strings.Repeat("x", MaxContentSize+1))
	if err == nil {
		t.Fatal("expected error for content too large")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_ContentAtMaxSize(t *testing.T) {
	if _, err := New("doc-1", strings.Repeat("x", MaxContentSize)); err != nil {
		t.Fatalf("unexpected error for content at max size: %v", err)
	}
}
