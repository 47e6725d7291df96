// Package measurement defines the values carried on data channels, between
// drivers and tasks, along with the fixed-point helpers used to produce them.
package measurement
