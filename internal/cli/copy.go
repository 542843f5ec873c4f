package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cloudfs/azxfer/internal/config"
	"github.com/cloudfs/azxfer/internal/model"
	"github.com/cloudfs/azxfer/internal/preflight"
	"github.com/cloudfs/azxfer/internal/transfer"
)

type copyOptions struct {
	*globalOptions

	sourceURL  string
	sourceSAS  string
	destURL    string
	destSAS    string
	logDir     string
	azcopyPath string
	preflight  bool
}

func newCopyCmd(global *globalOptions) *cobra.Command {
	opts := &copyOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy from source to destination with azcopy",
		Long: `Copy from source to destination with azcopy.

Each credential is appended to its address as the query string, exactly as given.

Example:
  azxfer copy \
    --source https://src.blob.core.windows.net/container/path --source-sas "$SRC_SAS" \
    --dest https://dst.blob.core.windows.net/container/path --dest-sas "$DST_SAS"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			return RunCopy(cmd.Context(), cfg, opts.globalOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.sourceURL, "source", "", "Source address (env AZXFER_SOURCE_URL)")
	f.StringVar(&opts.sourceSAS, "source-sas", "", "Source SAS token (env AZXFER_SOURCE_SAS)")
	f.StringVar(&opts.destURL, "dest", "", "Destination address (env AZXFER_DEST_URL)")
	f.StringVar(&opts.destSAS, "dest-sas", "", "Destination SAS token (env AZXFER_DEST_SAS)")
	f.StringVar(&opts.logDir, "log-dir", "", "Directory for azcopy.log (env AZXFER_LOG_DIR)")
	f.StringVar(&opts.azcopyPath, "azcopy", "", "azcopy executable (env AZXFER_AZCOPY_PATH)")
	f.BoolVar(&opts.preflight, "preflight", false, "Check both containers are reachable before copying (env AZXFER_PREFLIGHT)")

	return cmd
}

// apply overrides cfg with every flag the user set explicitly.
func (o *copyOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if f.Changed(name) {
			*dst = value
		}
	}
	set("source", &cfg.SourceURL, o.sourceURL)
	set("source-sas", &cfg.SourceSAS, o.sourceSAS)
	set("dest", &cfg.DestURL, o.destURL)
	set("dest-sas", &cfg.DestSAS, o.destSAS)
	set("log-dir", &cfg.LogDir, o.logDir)
	set("azcopy", &cfg.AzcopyPath, o.azcopyPath)
	if f.Changed("preflight") {
		cfg.Preflight = o.preflight
	}
}

// RunCopy performs one transfer and reports it on stdout.
// A failed transfer is returned as *ExitCodeError.
func RunCopy(ctx context.Context, cfg *config.Config, opts *globalOptions, stdout, stderr io.Writer) error {
	logger := newLogger(cfg, opts, stderr).WithField("run_id", uuid.NewString())

	req := cfg.Request()
	if err := req.Validate(); err != nil {
		return err
	}
	logger.WithFields(locationFields(req)).Info("transfer requested")

	if opts.dryRun {
		fmt.Fprintln(stdout, transfer.BuildCommand(cfg.AzcopyPath, req).Redacted())
		return nil
	}

	if cfg.Preflight {
		if err := preflight.Check(ctx, logger, preflight.RoleSource, req.SourceLocation, req.SourceCredential); err != nil {
			return err
		}
		if err := preflight.Check(ctx, logger, preflight.RoleDestination, req.DestinationLocation, req.DestinationCredential); err != nil {
			return err
		}
	}

	inv := transfer.NewInvoker(cfg.AzcopyPath, stdout, logger)
	res, err := inv.Transfer(ctx, req)
	if err != nil {
		return err
	}

	transfer.ReportStatus(stdout, res.ExitCode)
	if !res.Succeeded() {
		return &ExitCodeError{Code: res.ExitCode}
	}
	return nil
}

func newLogger(cfg *config.Config, opts *globalOptions, w io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level := cfg.Level()
	switch {
	case opts.verbose:
		level = log.DebugLevel
	case opts.quiet:
		level = log.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// locationFields never includes credentials.
func locationFields(req *model.TransferRequest) log.Fields {
	fields := log.Fields{"log_dir": req.LogDirectory}
	if loc, err := preflight.Describe(req.SourceLocation); err == nil {
		for k, v := range loc.Fields(string(preflight.RoleSource)) {
			fields[k] = v
		}
	}
	if loc, err := preflight.Describe(req.DestinationLocation); err == nil {
		for k, v := range loc.Fields(string(preflight.RoleDestination)) {
			fields[k] = v
		}
	}
	return fields
}
