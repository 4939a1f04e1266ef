// Package journal keeps an append-only SQLite log of link actions so that
// past link, unlink, verify and sync runs can be reviewed with the history
// command.
package journal
