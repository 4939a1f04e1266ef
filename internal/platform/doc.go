// Package platform wraps the filesystem operations the reconciler is allowed
// to perform: atomic directory symlink creation, symlink-only removal, one-level
// target reads, and permission changes that are no-ops on Windows.
package platform
