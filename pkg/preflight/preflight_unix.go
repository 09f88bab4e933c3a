//go:build !windows

package preflight

import (
	"golang.org/x/sys/unix"
)

// checkVolumeExists is a no-op on Unix, every path lives below "/".
func checkVolumeExists(path string) error {
	return nil
}

// checkWritable asks the kernel whether the current user may create entries in
// dir. Nothing is written.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}
