//go:build !windows
// +build !windows

package tclbc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PreservePermissions reads srcPath's mode bits and applies them to
// dstPath, so the emitted object file carries the same permission bits
// as the script it was compiled from. Uses
// unix.Stat directly rather than os.Stat so the raw st_mode bits are
// available without a Mode()-to-os.FileMode reinterpretation round trip.
func PreservePermissions(srcPath, dstPath string) error {
	var st unix.Stat_t
	if err := unix.Stat(srcPath, &st); err != nil {
		return fmt.Errorf("tclbc: stat %s: %w", srcPath, err)
	}
	if err := unix.Chmod(dstPath, st.Mode&0o777); err != nil {
		return fmt.Errorf("tclbc: chmod %s: %w", dstPath, err)
	}
	return nil
}
