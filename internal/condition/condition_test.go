package condition

import (
	"errors"
	"testing"
)

func constLeaf(t *testing.T, name string, value bool, calls *int) Condition {
	t.Helper()
	leaf, err := NewFunc(name, nil, func(Args) (bool, error) {
		if calls != nil {
			*calls++
		}
		return value, nil
	})
	if err != nil {
		t.Fatalf("NewFunc(%q): %v", name, err)
	}
	return leaf
}

func TestFuncParamMatching(t *testing.T) {
	t.Parallel()
	var got Args
	leaf, err := NewFunc("probe", []string{"now"}, func(args Args) (bool, error) {
		got = args
		return true, nil
	})
	if err != nil {
		t.Fatalf("NewFunc: %v", err)
	}

	t.Run("declared subset passed through", func(t *testing.T) {
		ok, err := leaf.Observe(Args{"now": 42, "task": "cleanup"})
		if err != nil {
			t.Fatalf("Observe: %v", err)
		}
		if !ok {
			t.Fatal("expected true")
		}
		if len(got) != 1 || got["now"] != 42 {
			t.Fatalf("state function saw %v, want only declared params", got)
		}
	})

	t.Run("missing declared param errors", func(t *testing.T) {
		if _, err := leaf.Observe(Args{"task": "cleanup"}); !errors.Is(err, ErrMissingParam) {
			t.Fatalf("expected ErrMissingParam, got %v", err)
		}
	})

	t.Run("no-context evaluation errors", func(t *testing.T) {
		if _, err := Evaluate(leaf); !errors.Is(err, ErrMissingParam) {
			t.Fatalf("expected ErrMissingParam, got %v", err)
		}
	})
}

func TestLeafErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()
	boom := errors.New("history backend down")
	leaf, err := NewFunc("failing", nil, func(Args) (bool, error) { return false, boom })
	if err != nil {
		t.Fatalf("NewFunc: %v", err)
	}
	tree, err := All(True(), leaf)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if _, err := Evaluate(tree); !errors.Is(err, boom) {
		t.Fatalf("expected leaf error to propagate, got %v", err)
	}
}

func TestAllShortCircuit(t *testing.T) {
	t.Parallel()
	var aCalls, bCalls int
	a := constLeaf(t, "a", false, &aCalls)
	b := constLeaf(t, "b", true, &bCalls)

	tree, err := All(a, b)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	ok, err := Evaluate(tree)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ok {
		t.Fatal("expected false")
	}
	if aCalls != 1 {
		t.Fatalf("first child evaluated %d times, want 1", aCalls)
	}
	if bCalls != 0 {
		t.Fatalf("second child evaluated %d times after short-circuit, want 0", bCalls)
	}
}

func TestAnyShortCircuit(t *testing.T) {
	t.Parallel()
	var aCalls, bCalls int
	a := constLeaf(t, "a", true, &aCalls)
	b := constLeaf(t, "b", false, &bCalls)

	tree, err := Any(a, b)
	if err != nil {
		t.Fatalf("Any: %v", err)
	}
	ok, err := Evaluate(tree)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ok {
		t.Fatal("expected true")
	}
	if aCalls != 1 || bCalls != 0 {
		t.Fatalf("calls = (%d, %d), want (1, 0)", aCalls, bCalls)
	}
}

func TestEvaluationOrderIsSequential(t *testing.T) {
	t.Parallel()
	var order []string
	leaf := func(name string, value bool) Condition {
		l, err := NewFunc(name, nil, func(Args) (bool, error) {
			order = append(order, name)
			return value, nil
		})
		if err != nil {
			t.Fatalf("NewFunc: %v", err)
		}
		return l
	}

	tree, err := All(leaf("first", true), leaf("second", true), leaf("third", false), leaf("fourth", true))
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if _, err := Evaluate(tree); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("evaluated %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("evaluated %v, want %v", order, want)
		}
	}
}

func TestFlatteningAtConstruction(t *testing.T) {
	t.Parallel()
	a := constLeaf(t, "a", true, nil)
	b := constLeaf(t, "b", true, nil)
	c := constLeaf(t, "c", true, nil)

	inner, err := All(a, b)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	nested, err := All(inner, c)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	flat, err := All(a, b, c)
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	if !nested.Equal(flat) {
		t.Fatalf("All(All(a,b),c) = %v, want structural equality with All(a,b,c) = %v", nested, flat)
	}

	// Mixed kinds are not absorbed.
	union, err := Any(a, b)
	if err != nil {
		t.Fatalf("Any: %v", err)
	}
	mixed, err := All(union, c)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if mixed.Equal(flat) {
		t.Fatal("Any child must not be flattened into All")
	}
}

func TestDoubleNegationCollapses(t *testing.T) {
	t.Parallel()
	x := constLeaf(t, "x", true, nil)

	once, err := Not(x)
	if err != nil {
		t.Fatalf("Not: %v", err)
	}
	twice, err := Not(once)
	if err != nil {
		t.Fatalf("Not: %v", err)
	}
	if twice != x {
		t.Fatalf("Not(Not(x)) = %v, want x itself", twice)
	}
}

func TestConstants(t *testing.T) {
	t.Parallel()
	if ok, err := Evaluate(True()); err != nil || !ok {
		t.Fatalf("True() = (%v, %v)", ok, err)
	}
	if ok, err := Evaluate(False()); err != nil || ok {
		t.Fatalf("False() = (%v, %v)", ok, err)
	}
	if !True().Equal(True()) || True().Equal(False()) {
		t.Fatal("constant equality broken")
	}
}

func TestConstructionErrors(t *testing.T) {
	t.Parallel()
	if _, err := All(); !errors.Is(err, ErrConstruction) {
		t.Fatalf("empty All: %v", err)
	}
	if _, err := Any(nil); !errors.Is(err, ErrConstruction) {
		t.Fatalf("nil Any child: %v", err)
	}
	if _, err := Not(nil); !errors.Is(err, ErrConstruction) {
		t.Fatalf("nil Not child: %v", err)
	}
	if _, err := NewFunc("x", nil, nil); !errors.Is(err, ErrConstruction) {
		t.Fatalf("nil state function: %v", err)
	}
}

func TestCompositeEqualityIsOrderSensitive(t *testing.T) {
	t.Parallel()
	a := constLeaf(t, "a", true, nil)
	b := constLeaf(t, "b", true, nil)

	ab, err := All(a, b)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	ba, err := All(b, a)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if ab.Equal(ba) {
		t.Fatal("evaluation order is observable, All(a,b) must differ from All(b,a)")
	}
}
