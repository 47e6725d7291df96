// Package jiffies provides the system time base: a tick-derived monotonic
// [Clock], and the [SysTick] timer that drives it, along with the root
// scheduler.
package jiffies
