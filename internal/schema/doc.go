// Package schema validates YAML and JSON documents against embedded JSON
// schemas and flattens validator output into path-addressed issues.
package schema
