package condition

import (
	"fmt"
	"strings"
)

// All is true iff every child is true. Children evaluate strictly in order and
// evaluation stops at the first false one.
//
// Children that are themselves All composites are absorbed directly, so no
// nested same-kind wrapper ever exists.
func All(children ...Condition) (Condition, error) {
	if err := checkChildren(children); err != nil {
		return nil, err
	}
	flat := make([]Condition, 0, len(children))
	for _, c := range children {
		if same, ok := c.(*allCond); ok {
			flat = append(flat, same.children...)
			continue
		}
		flat = append(flat, c)
	}
	return &allCond{children: flat}, nil
}

// Any is true iff at least one child is true. Children evaluate strictly in
// order and evaluation stops at the first true one. Same-kind children are
// absorbed like in All.
func Any(children ...Condition) (Condition, error) {
	if err := checkChildren(children); err != nil {
		return nil, err
	}
	flat := make([]Condition, 0, len(children))
	for _, c := range children {
		if same, ok := c.(*anyCond); ok {
			flat = append(flat, same.children...)
			continue
		}
		flat = append(flat, c)
	}
	return &anyCond{children: flat}, nil
}

// Not negates child. Negating a negation returns the original condition
// directly rather than wrapping it twice.
func Not(child Condition) (Condition, error) {
	if child == nil {
		return nil, fmt.Errorf("negating nil condition: %w", ErrConstruction)
	}
	if n, ok := child.(*notCond); ok {
		return n.child, nil
	}
	return &notCond{child: child}, nil
}

// True returns the constant true condition.
func True() Condition { return alwaysTrue{} }

// False returns the constant false condition.
func False() Condition { return alwaysFalse{} }

func checkChildren(children []Condition) error {
	if len(children) == 0 {
		return fmt.Errorf("composite condition needs at least one child: %w", ErrConstruction)
	}
	for i, c := range children {
		if c == nil {
			return fmt.Errorf("composite condition child %d is nil: %w", i, ErrConstruction)
		}
	}
	return nil
}

// ---- all ----

type allCond struct {
	children []Condition
}

func (a *allCond) Observe(args Args) (bool, error) {
	for _, c := range a.children {
		ok, err := c.Observe(args)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (a *allCond) Equal(other Condition) bool {
	o, ok := other.(*allCond)
	return ok && equalChildren(a.children, o.children)
}

func (a *allCond) String() string { return joinChildren(a.children, " & ") }

// ---- any ----

type anyCond struct {
	children []Condition
}

func (a *anyCond) Observe(args Args) (bool, error) {
	for _, c := range a.children {
		ok, err := c.Observe(args)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a *anyCond) Equal(other Condition) bool {
	o, ok := other.(*anyCond)
	return ok && equalChildren(a.children, o.children)
}

func (a *anyCond) String() string { return joinChildren(a.children, " | ") }

// ---- not ----

type notCond struct {
	child Condition
}

func (n *notCond) Observe(args Args) (bool, error) {
	ok, err := n.child.Observe(args)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (n *notCond) Equal(other Condition) bool {
	o, ok := other.(*notCond)
	return ok && n.child.Equal(o.child)
}

func (n *notCond) String() string { return fmt.Sprintf("!%v", n.child) }

// ---- constants ----

type alwaysTrue struct{}

func (alwaysTrue) Observe(Args) (bool, error) { return true, nil }
func (alwaysTrue) Equal(other Condition) bool { _, ok := other.(alwaysTrue); return ok }
func (alwaysTrue) String() string             { return "true" }

type alwaysFalse struct{}

func (alwaysFalse) Observe(Args) (bool, error) { return false, nil }
func (alwaysFalse) Equal(other Condition) bool { _, ok := other.(alwaysFalse); return ok }
func (alwaysFalse) String() string             { return "false" }

func equalChildren(a, b []Condition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func joinChildren(children []Condition, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = fmt.Sprint(c)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
