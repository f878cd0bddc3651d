package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"bookscan/internal/bibxml"
	"bookscan/internal/camera"
	"bookscan/internal/config"
	"bookscan/internal/logging"
	"bookscan/internal/pipeline"
	"bookscan/internal/preflight"
	"bookscan/internal/recordstore"
	"bookscan/internal/services"
	"bookscan/internal/services/ndl"
	"bookscan/internal/services/v4l2"
	"bookscan/internal/services/zbarcam"
)

func runScan(cmd *cobra.Command, ctx *commandContext, args []string) (err error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	sessionID := logging.NewSessionID()
	logger, err := logging.NewFromConfig(cfg, sessionID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, string(pipeline.StageSelectMode), "logger", "", err)
	}
	runCtx := services.WithSessionID(cmd.Context(), sessionID)

	defaultProfile, err := camera.ParseProfile(cfg.Camera.DefaultProfile)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, string(pipeline.StageSelectMode), "profile", "", err)
	}
	mode := pipeline.ParseMode(args, defaultProfile)
	logger.Info("bookscan run started",
		logging.String("mode", mode.String()),
		logging.String("config", ctx.configPath),
		logging.String("store", cfg.Store.Path),
	)

	out := cmd.OutOrStdout()
	runner := &pipeline.Runner{Logger: logger}
	if mode.Kind == pipeline.ModeCamera {
		acquirer, err := buildAcquirer(cfg, mode.Profile, out, logger)
		if err != nil {
			return err
		}
		runner.Acquirer = acquirer
	}

	fetcher, err := ndl.New(cfg.Lookup.Endpoint,
		ndl.WithTimeout(cfg.LookupTimeout()),
		ndl.WithUserAgent(cfg.Lookup.UserAgent),
	)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, string(pipeline.StageFetch), "lookup client", "", err)
	}
	runner.Fetcher = fetcher

	parser, err := bibxml.NewParser(bibxml.DefaultNamespaces())
	if err != nil {
		return services.Wrap(services.ErrConfiguration, string(pipeline.StageParse), "parser", "", err)
	}
	runner.Parser = parser

	store, err := recordstore.Open(runCtx, recordstore.Options{
		Path:        cfg.Store.Path,
		LockTimeout: cfg.StoreLockTimeout(),
		Source:      fetcher.Endpoint(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	runner.Store = store

	result, err := runner.Run(runCtx, mode)
	if err != nil {
		logging.ErrorWithContext(logger, "bookscan run failed", "run_failed",
			logging.String("mode", mode.String()),
			logging.String("stage", string(result.Stage)),
			logging.String("isbn", result.ISBN),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return err
	}

	return closeThenPrint(out, store, result)
}

// closeThenPrint releases the store before reporting the record, so a record
// is only echoed once its write is durable and the lock is dropped.
func closeThenPrint(out io.Writer, store io.Closer, result pipeline.Result) error {
	if err := store.Close(); err != nil {
		return err
	}
	printRecord(out, result)
	return nil
}

// buildAcquirer wires the scanner, overlay, and device waiter for a camera run.
// Required tools are checked first so a missing binary is reported as such.
func buildAcquirer(cfg *config.Config, profile camera.Profile, out io.Writer, logger *slog.Logger) (*camera.Acquirer, error) {
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Available {
			continue
		}
		// The overlay tool only matters for the profile that drives the preview.
		if status.Name == preflight.OverlayToolName && !profile.UsesOverlay() {
			continue
		}
		return nil, services.Wrap(services.ErrExternalTool, string(pipeline.StageAcquireISBN), "check tools", status.Name+": "+status.Detail, nil)
	}

	scanner, err := zbarcam.New(cfg.Camera.ScannerBinary,
		zbarcam.WithDevice(cfg.Camera.Device),
		zbarcam.WithTerminateGrace(cfg.TerminateGrace()),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(pipeline.StageAcquireISBN), "scanner", "", err)
	}
	acquirer := &camera.Acquirer{
		Scanner: scanner,
		Options: camera.Options{
			Device:      cfg.Camera.Device,
			WaitDevice:  cfg.Camera.WaitForDevice,
			DeviceWait:  cfg.DeviceWait(),
			ScanTimeout: cfg.ScanTimeout(),
			Echo: func(line string) {
				fmt.Fprintln(out, line)
			},
		},
		Logger: logger,
	}
	if profile.UsesOverlay() {
		overlay, err := v4l2.New(cfg.Camera.OverlayBinary, v4l2.WithDevice(cfg.Camera.Device))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, string(pipeline.StageAcquireISBN), "overlay", "", err)
		}
		acquirer.Overlay = overlay
	}
	if cfg.Camera.WaitForDevice {
		acquirer.Waiter = camera.NewUdevWaiter(logger)
	}
	return acquirer, nil
}

// printRecord writes the stored values one per line, transcript last.
func printRecord(out io.Writer, result pipeline.Result) {
	fmt.Fprintf(out, ">> isbn=%s\n", result.ISBN)
	for _, field := range result.Record.Fields() {
		fmt.Fprintln(out, strings.TrimRight(field.Value, "\n"))
	}
}
