package rag

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// CombineMode selects which request texts form the retrieval query.
type CombineMode string

// Query combination modes.
const (
	CombineConcat    CombineMode = "concat"
	CombineCandidate CombineMode = "candidate"
	CombinePosting   CombineMode = "posting"
)

// Policy is the admission behaviour when all slots are taken.
type Policy string

// Admission policies.
const (
	PolicyReject Policy = "reject"
	PolicyQueue  Policy = "queue"
)

// Defaults.
const (
	DefaultK         = 5
	DefaultSeparator = "\n\n"
)

// Config tunes the orchestrator.
type Config struct {
	K         int
	Combine   CombineMode
	Separator string

	// MaxConcurrent bounds in-flight requests; 0 disables admission control.
	MaxConcurrent   int64
	Policy          Policy
	QueueTimeout    time.Duration
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		K:         DefaultK,
		Combine:   CombineConcat,
		Separator: DefaultSeparator,
		Policy:    PolicyReject,
	}
}

func (c Config) validate() error {
	if c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d: %w", c.K, domain.ErrInvalidArgument)
	}
	switch c.Combine {
	case CombineConcat, CombineCandidate, CombinePosting:
	default:
		return fmt.Errorf("unknown combine mode %q: %w", c.Combine, domain.ErrInvalidArgument)
	}
	switch c.Policy {
	case PolicyReject, PolicyQueue:
	default:
		return fmt.Errorf("unknown admission policy %q: %w", c.Policy, domain.ErrInvalidArgument)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must not be negative: %w", domain.ErrInvalidArgument)
	}
	if c.QueueTimeout < 0 || c.EmbedTimeout < 0 || c.GenerateTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative: %w", domain.ErrInvalidArgument)
	}
	return nil
}
