package transfer

import "os"

// EnsureLogDirectory creates path and any missing parents.
// An existing directory is not an error.
func EnsureLogDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return &FilesystemError{Path: path, Err: err}
	}
	return nil
}
