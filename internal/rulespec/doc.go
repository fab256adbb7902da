// Package rulespec turns textual scheduling rules into condition trees.
//
// A rule is a boolean expression over atoms:
//
//	daily between 09:00 and 17:00 & !(after cleanup failed)
//
// with & (and), | (or), ! (not) and parentheses. Atoms are matched against a
// pattern table the parser is constructed with; nothing is registered
// globally. The recurrence atoms (every, daily, cron, ...) reference the task
// the rule is parsed for, so parsing always happens per task.
package rulespec
