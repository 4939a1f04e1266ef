package platform

import (
	"os"
	"runtime"
)

// Permission modes for files pkglink owns.
const (
	DirPerm     os.FileMode = 0755
	FilePerm    os.FileMode = 0644
	PrivatePerm os.FileMode = 0600
)

// Chmod sets file permissions. Windows has no Unix permission bits, so it is
// a no-op there.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}
