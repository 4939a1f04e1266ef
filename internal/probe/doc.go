// Package probe inspects the filesystem state behind a link record without
// changing it: whether the source directory exists, whether its package
// descriptor is valid for the record, and what occupies the expected link
// path inside a project's dependency directory.
package probe
