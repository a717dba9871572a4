package resilience

import (
	"context"
)

// Bulkhead bounds the number of concurrent calls to an external collaborator.
// The segmentation oracle is rate limited; a small fixed concurrency keeps
// excess load visible as retryable rate-limit errors rather than a failure
// storm.
type Bulkhead struct {
	name string
	sem  chan struct{}
}

// NewBulkhead creates a bulkhead allowing at most maxConcurrent calls.
func NewBulkhead(name string, maxConcurrent int) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Bulkhead{
		name: name,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Execute runs fn once a slot is available, blocking until then or until the
// context is canceled.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-b.sem }()

	return fn()
}

// ExecuteWithResult runs a function that returns a value within the bulkhead.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// InUse returns the number of slots currently in use.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the maximum concurrent calls allowed.
func (b *Bulkhead) MaxConcurrent() int {
	return cap(b.sem)
}
