// Package history persists task run records and answers the time-window
// queries the condition layer asks: "has this task succeeded inside this
// span?", "is it running right now?".
//
// # Drivers
//
//   - "sqlite": a SQLite database file (modernc.org/sqlite, WAL mode). The
//     durable choice; run history survives restarts, which matters because
//     conditions like "has not run today" are evaluated against it.
//   - "memory": process-local, used in tests and when persistence is
//     explicitly disabled.
//
// Instants are stored at microsecond precision, matching the resolution of
// the timeperiod algebra.
package history
