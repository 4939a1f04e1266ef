// Package linkstore persists link records: the desired-state set of packages
// registered for linking, their source directories and the projects each one
// is linked into.
//
// The store is an ordered list keyed by package name. Every mutation is
// applied to a copy, written through a Backend, and only then made visible,
// so a failed save leaves both disk and memory at the previous state.
package linkstore
