package transfer

import "fmt"

// LaunchError means the transfer binary could not be started at all,
// so no exit code exists.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// FilesystemError means the log directory could not be created.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("failed to create log directory %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
