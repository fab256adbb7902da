package condition

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction reports an invalid condition tree definition
	// (zero or nil children, nil state function).
	ErrConstruction = errors.New("invalid condition construction")

	// ErrMissingParam reports a leaf whose declared parameter was not
	// supplied in the Observe arguments.
	ErrMissingParam = errors.New("missing condition parameter")
)

// Args carries the evaluation context: named values the scheduler supplies per
// decision point ("now", "task", ...). Leaves receive only the subset they
// declare.
type Args map[string]any

// Condition is a node of a boolean expression tree.
type Condition interface {
	// Observe evaluates the condition against the supplied arguments.
	// Errors from leaf state functions propagate unchanged.
	Observe(args Args) (bool, error)

	// Equal reports structural equality. Composites compare their flattened
	// child sequences in order.
	Equal(other Condition) bool
}

// Evaluate is the no-context convenience: Observe with empty arguments.
// Leaves that declare parameters fail with ErrMissingParam.
func Evaluate(c Condition) (bool, error) {
	return c.Observe(nil)
}

// ---- leaf ----

// StateFunc is an injected predicate. It receives exactly the parameters its
// leaf declared and reports the condition's state.
type StateFunc func(args Args) (bool, error)

// Func is a leaf condition wrapping an arbitrary state function.
type Func struct {
	name   string
	params []string
	fn     StateFunc
}

// NewFunc builds a leaf. params lists the argument names the state function
// requires; Observe passes exactly those through and rejects a call missing
// any of them. Extra supplied arguments are ignored.
func NewFunc(name string, params []string, fn StateFunc) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("leaf %q has no state function: %w", name, ErrConstruction)
	}
	return &Func{name: name, params: append([]string(nil), params...), fn: fn}, nil
}

func (f *Func) Name() string { return f.name }

func (f *Func) Observe(args Args) (bool, error) {
	sub := make(Args, len(f.params))
	for _, p := range f.params {
		v, ok := args[p]
		if !ok {
			return false, fmt.Errorf("leaf %q requires %q: %w", f.name, p, ErrMissingParam)
		}
		sub[p] = v
	}
	return f.fn(sub)
}

func (f *Func) Equal(other Condition) bool {
	o, ok := other.(*Func)
	if !ok {
		return false
	}
	if f == o {
		return true
	}
	if f.name != o.name || len(f.params) != len(o.params) {
		return false
	}
	for i := range f.params {
		if f.params[i] != o.params[i] {
			return false
		}
	}
	return true
}

func (f *Func) String() string { return f.name }
