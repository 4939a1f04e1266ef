package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkglink-dev/pkglink/internal/branding"
	"github.com/pkglink-dev/pkglink/internal/config"
	"github.com/pkglink-dev/pkglink/internal/platform"
)

// File names under the root directory.
const (
	StoreFile   = "links.yaml"
	JournalFile = "journal.db"
)

// Root returns the state directory, shared with the config file.
func Root() string {
	return config.Dir()
}

// EnsureRoot creates the state directory if it does not exist.
func EnsureRoot() error {
	root := Root()
	if err := os.MkdirAll(root, platform.DirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", root, err)
	}
	return nil
}

// StorePath returns the link store file. It checks the PKGLINK_STORE
// environment variable first, then the configured store_path, then falls
// back to ~/.pkglink/links.yaml.
func StorePath(configured string) string {
	if v := os.Getenv(branding.EnvVar("STORE")); v != "" {
		return v
	}
	if configured != "" {
		return configured
	}
	return filepath.Join(Root(), StoreFile)
}

// JournalPath returns the journal database. It checks the PKGLINK_JOURNAL
// environment variable first, then falls back to ~/.pkglink/journal.db.
func JournalPath() string {
	if v := os.Getenv(branding.EnvVar("JOURNAL")); v != "" {
		return v
	}
	return filepath.Join(Root(), JournalFile)
}
