package health

import "context"

// StorePinger checks document store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker reports whether the store connection has been initialized.
type ReadinessChecker interface {
	Ready() bool
}
