// Package main provides the azxfer CLI entry point.
// azxfer copies data between Azure storage endpoints by running azcopy.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/cloudfs/azxfer/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}
	var exitErr *cli.ExitCodeError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode passes azcopy's own exit code through. Local failures and
// signal deaths (reported as -1) become 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitCodeError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}
