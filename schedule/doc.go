// Package schedule implements a rate-based, cooperative task scheduler, where
// every periodic component implements [Schedulable], and a single base tick
// drives an ordered set of tasks, via a [Scheduler].
//
// Each task declares a rate, which is converted into an interval of base
// ticks. On every tick, the Scheduler runs three phases, across every task
// that is due, in registration order:
//
//  1. [PreScheduler.PreSchedule]
//  2. [Schedulable.Schedule], resetting the task's counter only if it reports
//     completion
//  3. [PostScheduler.PostSchedule]
//
// A Scheduler is itself a Schedulable, allowing scheduling trees, e.g. a slow
// telemetry scheduler nested within the root scheduler.
package schedule
