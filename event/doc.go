// Package event bridges interrupt contexts (e.g. a receiver decoding frames)
// to task context, using [Notify].
//
// A [Trigger] wraps a [schedule.Schedulable], running it in response to
// notifications, at most at a configured rate. Bursts of notifications
// coalesce into a single pending request, which is served either by a
// low-priority [SoftInterrupt], or on the next scheduler tick.
package event
