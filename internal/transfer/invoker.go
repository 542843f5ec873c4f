package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cloudfs/azxfer/internal/model"
)

// Result is what one azcopy process left behind.
// A non-zero ExitCode is a failed transfer, not a Go error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Succeeded reports whether azcopy exited 0.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Invoker spawns azcopy and echoes its output.
type Invoker struct {
	// Binary is the azcopy executable, looked up on PATH when it has no separator.
	Binary string
	// Stdout receives the child's echoed output. Defaults to os.Stdout.
	Stdout io.Writer
	Logger *log.Entry
}

// NewInvoker creates an invoker for the given azcopy binary.
func NewInvoker(binary string, stdout io.Writer, logger *log.Entry) *Invoker {
	if binary == "" {
		binary = DefaultBinary
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Invoker{
		Binary: binary,
		Stdout: stdout,
		Logger: logger,
	}
}

func (inv *Invoker) logger() *log.Entry {
	if inv.Logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return inv.Logger
}

func (inv *Invoker) stdout() io.Writer {
	if inv.Stdout == nil {
		return os.Stdout
	}
	return inv.Stdout
}

func (inv *Invoker) binary() string {
	if inv.Binary == "" {
		return DefaultBinary
	}
	return inv.Binary
}

// Transfer prepares the log directory, then runs a single copy to completion.
func (inv *Invoker) Transfer(ctx context.Context, req *model.TransferRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := EnsureLogDirectory(req.LogDirectory); err != nil {
		return nil, err
	}
	inv.logger().WithField("log_dir", req.LogDirectory).Debug("log directory ready")

	return inv.Execute(ctx, BuildCommand(inv.binary(), req))
}

// Execute runs cmd, blocking until it exits, and captures both streams.
// Only a failure to start the process is returned as an error.
func (inv *Invoker) Execute(ctx context.Context, cmd *Command) (*Result, error) {
	var stdout, stderr bytes.Buffer
	logger := inv.logger()

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger.WithField("command", cmd.Redacted()).Info("starting azcopy")
	start := time.Now()
	err := c.Run()

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &LaunchError{Name: cmd.Name, Err: err}
		}
		res.ExitCode = exitErr.ExitCode()
		logger.WithFields(log.Fields{
			"exit_code": res.ExitCode,
			"duration":  res.Duration,
		}).Warn("azcopy exited with failure")
		fmt.Fprintln(inv.stdout(), errorPrefix+res.Stderr)
		return res, nil
	}

	logger.WithField("duration", res.Duration).Info("azcopy finished")
	fmt.Fprintln(inv.stdout(), res.Stdout)
	return res, nil
}
