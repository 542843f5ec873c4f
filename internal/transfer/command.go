// Package transfer builds and runs azcopy copy commands.
package transfer

import (
	"os"
	"strings"

	"github.com/cloudfs/azxfer/internal/model"
)

const (
	// DefaultBinary is looked up on PATH when no explicit path is configured.
	DefaultBinary = "azcopy"

	// LogFileName is written by azcopy inside the request's log directory.
	LogFileName = "azcopy.log"

	redacted = "REDACTED"
)

// policyFlags are passed to every copy, in this order.
var policyFlags = []string{
	"--recursive",
	"--overwrite", "ifSourceNewer",
	"--check-length=true",
	"--block-size-mb", "100",
	"--cap-mbps", "500",
	"--log-level", "INFO",
}

// Command is a ready-to-spawn azcopy invocation.
// Args does not include Name, matching exec.Command.
type Command struct {
	Name string
	Args []string

	// masked replaces credential-bearing Args entries for display.
	masked map[int]string
}

// Tokens returns the binary name followed by its arguments.
func (c *Command) Tokens() []string {
	return append([]string{c.Name}, c.Args...)
}

// Redacted renders the command line with credentials masked, for display and logs.
func (c *Command) Redacted() string {
	args := append([]string(nil), c.Args...)
	for i, m := range c.masked {
		args[i] = m
	}
	return strings.Join(append([]string{c.Name}, args...), " ")
}

// BuildCommand maps a request onto an azcopy copy command line.
// Addresses are passed through verbatim; azcopy reports malformed ones.
func BuildCommand(binary string, req *model.TransferRequest) *Command {
	if binary == "" {
		binary = DefaultBinary
	}

	args := make([]string, 0, 3+len(policyFlags)+2)
	args = append(args,
		"copy",
		withCredential(req.SourceLocation, req.SourceCredential),
		withCredential(req.DestinationLocation, req.DestinationCredential),
	)
	args = append(args, policyFlags...)
	args = append(args,
		"--log-file="+LogFilePath(req.LogDirectory),
		"--resume",
	)

	return &Command{
		Name: binary,
		Args: args,
		masked: map[int]string{
			1: withCredential(req.SourceLocation, redacted),
			2: withCredential(req.DestinationLocation, redacted),
		},
	}
}

// LogFilePath keeps the caller's spelling of dir, so "./logs" yields
// "./logs/azcopy.log" rather than the cleaned "logs/azcopy.log".
func LogFilePath(dir string) string {
	if dir == "" || os.IsPathSeparator(dir[len(dir)-1]) {
		return dir + LogFileName
	}
	return dir + string(os.PathSeparator) + LogFileName
}

func withCredential(location, credential string) string {
	return location + "?" + credential
}
