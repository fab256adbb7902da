package timeperiod

import "errors"

var (
	// ErrConstruction reports an invalid period definition (zero children,
	// nil child, out-of-range bounds).
	ErrConstruction = errors.New("invalid period construction")

	// ErrUnsupported reports a structurally nonsensical variant/operation
	// combination, e.g. offsetting a cycle.
	ErrUnsupported = errors.New("unsupported period operation")

	// ErrMissingReference reports a Delta containment check invoked without
	// a reference instant.
	ErrMissingReference = errors.New("delta period requires a reference instant")

	// ErrUnresolved reports a composite whose fixed-point search exceeded the
	// refinement cap, typically periods whose occurrences never meet.
	ErrUnresolved = errors.New("composite period did not resolve")

	// ErrNotOverlapping reports Intersect called on disjoint spans.
	// Callers must check Overlaps first.
	ErrNotOverlapping = errors.New("spans do not overlap")
)
