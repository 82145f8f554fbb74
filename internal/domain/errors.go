package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals malformed or empty text, or an out-of-range numeric argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrShapeMismatch signals an embedding dimension disagreement.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrIndexOutOfRange signals a bad positive-pair index.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidArgument signals an invalid call argument (e.g. non-positive k).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEncodingFailed signals an encoder adapter failure.
	ErrEncodingFailed = errors.New("encoding failed")
	// ErrGenerationFailed signals a generation backend failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrTimeout signals that a backend call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrOverloaded signals that admission control rejected the request.
	ErrOverloaded = errors.New("overloaded")
)

// Stage names a step of the feedback pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageEmbed    Stage = "embed"
	StageRetrieve Stage = "retrieve"
	StageAssemble Stage = "assemble"
	StageGenerate Stage = "generate"
	// StageAdmission is reported when a request never entered the pipeline.
	StageAdmission Stage = "admission"
)

// StageError attaches the failed pipeline stage to an error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the stage that produced it.
func NewStageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// BackendError classifies a failed backend call. Deadline expiry maps to
// ErrTimeout, everything else to the given sentinel. Caller cancellation is
// kept as-is so callers can tell it apart from a backend fault.
func BackendError(op string, err, sentinel error) error {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, sentinel):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
}
