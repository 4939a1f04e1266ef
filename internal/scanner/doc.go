// Package scanner discovers local packages under a directory tree and
// filters them with the workspace's auto-link rules. It only reads the
// filesystem; registering what it finds is left to the caller.
package scanner
