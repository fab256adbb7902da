// Package condition composes boolean predicates into trees and evaluates them
// with defined ordering semantics.
//
// A condition answers "does this hold right now?": the current time is inside
// a period, a task has succeeded today, a file exists. Leaves wrap injected
// state functions; All/Any/Not combine them.
//
// # Evaluation order is observable
//
// Observe evaluates children strictly in sequence and short-circuits: All
// stops at the first false child, Any at the first true one. Skipped children
// are not evaluated at all, so their side effects (history queries, counters)
// do not occur. Structural equality is therefore order-sensitive.
//
// # Normalization
//
// Composites flatten same-kind children at construction (All(All(a,b),c) is
// All(a,b,c) structurally) and Not(Not(x)) yields x directly. These hold as
// invariants, not optimizations.
//
// Trees are immutable after construction. Evaluating the same tree from
// multiple goroutines is safe only if the injected state functions are; the
// package adds no synchronization of its own.
package condition
