// Package linkerr defines the failure taxonomy shared by the link store, the
// probe and the reconciler. Every error names the offending package and path
// and carries a suggested corrective command.
package linkerr
