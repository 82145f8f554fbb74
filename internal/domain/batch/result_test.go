package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK(3, "doc-1")
	if r.ID() != "doc-1" || r.Position() != 3 {
		t.Errorf("ID() = %q, Position() = %d", r.ID(), r.Position())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError(0, "doc-2", err)
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestFailed(t *testing.T) {
	ok := []Result{NewOK(0, "a"), NewSkipped(1, "b")}
	if Failed(ok) {
		t.Error("Failed() = true for batch without errors")
	}
	bad := append(ok, NewError(2, "c", errors.New("x")))
	if !Failed(bad) {
		t.Error("Failed() = false for batch with an error")
	}
}
