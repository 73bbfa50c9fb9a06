package did

import (
	"context"
	"time"
)

// Resolver is the capability interface every method-specific resolver
// implements (spec §4.4). The universal resolver dispatches to instances
// of this interface by method name (spec §9: "a small tagged registry...
// No inheritance hierarchy").
type Resolver interface {
	Resolve(ctx context.Context, didURL string, options ResolutionOptions) (ResolutionResult, error)
}

// ResolutionOptions carries per-call overrides (spec §5: "callers may
// override" component timeout defaults).
type ResolutionOptions struct {
	// Timeout overrides the resolver's default timeout (3s per spec §5)
	// when non-zero.
	Timeout time.Duration
}
