// Package manifest reads package descriptors (package.json) from a source
// directory. A descriptor is schema-checked before it is trusted; the link
// engine only needs its name, version and dependency names.
package manifest
