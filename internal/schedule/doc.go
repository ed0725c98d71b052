// Package schedule holds the pure scheduling leaves: cron expression
// builders, wall-clock and day-name parsers, and the weekly announcement
// window arithmetic. Nothing here keeps state or touches the clock; callers
// pass "now" explicitly.
package schedule
