package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// ErrExists is returned by CreateSymlink when the link path is occupied and
// replace was not requested.
var ErrExists = errors.New("link path already exists")

// CreateSymlink creates link pointing to target. The link is first created
// under a temporary name in the same directory and then renamed into place,
// so readers never observe a half-created entry. When replace is false an
// existing entry at link makes the call fail with ErrExists. When replace is
// true an existing symlink or file is swapped out by the rename and an
// existing directory is removed first.
func CreateSymlink(target, link string, replace bool) error {
	info, err := os.Lstat(link)
	switch {
	case err == nil && !replace:
		return fmt.Errorf("%w: %s", ErrExists, link)
	case err == nil && info.IsDir():
		if err := os.RemoveAll(link); err != nil {
			return fmt.Errorf("removing directory at %s: %w", link, err)
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("inspecting %s: %w", link, err)
	}

	tmp := tempName(link)
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, link); err != nil {
		os.Remove(tmp) // best-effort
		return err
	}
	return nil
}

// RemoveSymlink removes the symlink at path. It refuses to remove anything
// that is not a symlink.
func RemoveSymlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%s is not a symlink", path)
	}
	return os.Remove(path)
}

// ReadSymlinkTarget returns the target of the symlink at path, resolved
// against the link's directory when relative and cleaned. Only one level of
// indirection is followed.
func ReadSymlinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}

// IsSymlinkSupported returns true if the current platform supports native symlinks.
// On Windows this attempts a test symlink to check developer mode.
func IsSymlinkSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}

	link := filepath.Join(os.TempDir(), ".pkglink-symlink-test")
	defer os.Remove(link)

	return os.Symlink(os.TempDir(), link) == nil
}

func tempName(link string) string {
	return filepath.Join(filepath.Dir(link),
		"."+filepath.Base(link)+".tmp-"+strconv.FormatInt(time.Now().UnixNano(), 36))
}
