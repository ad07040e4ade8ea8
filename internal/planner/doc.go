// Package planner holds the pure planning core: every exported function takes
// a state snapshot and returns a new one without touching the input.
package planner
