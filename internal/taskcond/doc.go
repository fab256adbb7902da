// Package taskcond provides the scheduling leaf conditions: period membership,
// task run history lookups and cron schedules, all expressed as condition
// leaves over the shared evaluation arguments.
//
// Every leaf reads the decision instant from the "now" argument; nothing in
// this package consults the wall clock. Leaves that query the run history
// additionally require a "ctx" argument carrying the evaluation context.
package taskcond
