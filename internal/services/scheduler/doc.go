// Package scheduler runs the decision loop: on every poll tick it observes
// each task's rule against the current instant and enqueues the tasks whose
// rule holds onto a bounded worker pool.
//
// The loop itself is the only clock reader. Rules receive the sweep instant
// through their evaluation arguments, so a sweep is one consistent decision
// point: every rule in it sees the same "now".
//
// Start and Stop may be called repeatedly; Apply swaps the task set and
// evaluation limits of a running service. Worker count and poll interval
// take effect on the next Start.
package scheduler
