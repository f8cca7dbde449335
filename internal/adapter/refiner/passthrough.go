package refiner

import "context"

// Passthrough is the refiner used when no model is configured. It returns
// the query unchanged, so the engine always calls the same interface and
// never branches on refiner availability.
type Passthrough struct{}

// NewPassthrough creates a no-op refiner.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// Refine returns the query unchanged.
func (p *Passthrough) Refine(_ context.Context, query string) (string, error) {
	return query, nil
}

// Name identifies the refiner for logging.
func (p *Passthrough) Name() string {
	return "passthrough"
}
