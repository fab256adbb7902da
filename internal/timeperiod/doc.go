// Package timeperiod models recurring and anchored spans of time and answers,
// for any reference instant, "what is the enclosing/previous/next occurrence
// of this period?".
//
// # Model
//
// An instant is a time.Time. The algebra works at a fixed minimum resolution
// (Resolution, one microsecond): adjacent occurrences of a period are separated
// by exactly one resolution step. A Span is a closed-closed interval between
// two instants.
//
// # Variants
//
//   - FixedInterval: a window recurring inside a calendar frame (minute, hour,
//     day, week, month), e.g. "between 09:00 and 17:00 each day".
//   - Delta: a floating window around a caller-supplied reference instant,
//     e.g. "the past 3 hours".
//   - Cycle: a repeating run of n whole calendar units anchored at a start
//     element, e.g. "weeks starting Monday". Every instant belongs to some
//     occurrence of a cycle.
//   - StaticBound: a single fixed window between two instants.
//   - All / Any: composites combining periods under intersection/union
//     semantics.
//   - Offsetted: a period shifted by whole occurrences.
//
// # Clock
//
// The package never reads the system clock. Every operation takes the
// reference instant as an argument; the caller decides what "now" is.
// All calendar arithmetic is wall-clock in the instant's own Location.
// Periods are immutable after construction and safe for concurrent use.
package timeperiod
