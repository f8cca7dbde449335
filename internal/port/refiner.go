package port

import "context"

// Refiner rewrites a user query into technical search terms.
// Implementations must not panic across the boundary; a failed refinement is
// reported as an error and the caller falls back to the original query.
type Refiner interface {
	// Refine rewrites the query. The context bounds the call; on timeout the
	// implementation returns ctx.Err().
	Refine(ctx context.Context, query string) (string, error)

	// Name identifies the refiner for logging.
	Name() string
}
