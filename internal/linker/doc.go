// Package linker reconciles link records with the filesystem.
//
// It is the only package that creates or removes links on disk. Link and
// Unlink act on one package in one project; LinkAll and UnlinkAll apply them
// across every record; Verify prunes recorded projects whose link is broken;
// Sync recreates the links every record declares. Each operation returns a
// Report listing what was done to which package and project, and a failure
// for one item never stops a batch.
package linker
