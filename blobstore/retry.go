package blobstore

import (
	"time"
)

// RetryPolicy bounds the exponential backoff a backend applies to transient failures before it gives
// up with a *StorageError. Each backend maps it onto its SDK's own retryer.
type RetryPolicy struct {
	MaxAttempts    int           `yaml:"max_attempts"`    // total attempts including the first one
	InitialBackoff time.Duration `yaml:"initial_backoff"` // delay before the first retry
	MaxBackoff     time.Duration `yaml:"max_backoff"`     // upper bound for a single delay
	Timeout        time.Duration `yaml:"timeout"`         // per attempt, negative disables it
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Timeout:        30 * time.Second,
	}
}

// WithDefaults fills unset fields from DefaultRetryPolicy.
func (p RetryPolicy) WithDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Timeout == 0 {
		p.Timeout = d.Timeout
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}
