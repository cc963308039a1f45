//go:build windows
// +build windows

package tclbc

import (
	"fmt"
	"os"
)

// PreservePermissions applies srcPath's portable Mode() bits to dstPath.
// Windows has no equivalent of unix permission bits, so this only carries
// the read-only attribute through os.Chmod's portable subset, matching
// the usual fallback for a windows build-tag variant of a unix permission
// helper.
func PreservePermissions(srcPath, dstPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("tclbc: stat %s: %w", srcPath, err)
	}
	if err := os.Chmod(dstPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("tclbc: chmod %s: %w", dstPath, err)
	}
	return nil
}
