package utils

import (
	"fmt"
	"os"
)

// Indicates if the given path exists or not (works for both files and directories)
func PathExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return err == nil
}

// EnsureDirectory creates dir (and parents) when missing and fails if the
// path exists but is not a directory.
func EnsureDirectory(dir string) error {
	if !PathExists(dir) {
		// 0 (special bit - ignored), 7 (rwx - owner), 5 (r-x - user group), 5 (r-x - others)
		return os.MkdirAll(dir, 0755)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return nil
}
