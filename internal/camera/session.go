package camera

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"bookscan/internal/isbn"
	"bookscan/internal/logging"
	"bookscan/internal/services"
)

// Process is a running scanner whose output is read line by line.
type Process interface {
	// Lines yields stdout lines as they arrive. It may be ranged over once.
	Lines() iter.Seq[string]
	// Terminate stops the process. Calls after the first are no-ops.
	Terminate() error
	// Wait blocks until the process has exited.
	Wait() error
	// Err reports a read failure that ended Lines early.
	Err() error
}

// Scanner starts the barcode scanning tool for a profile.
type Scanner interface {
	Start(ctx context.Context, profile Profile) (Process, error)
}

// Overlay toggles the hardware preview overlay.
type Overlay interface {
	SetOverlay(ctx context.Context, on bool) error
}

// DeviceWaiter blocks until the capture device is present.
type DeviceWaiter interface {
	WaitForDevice(ctx context.Context, device string, timeout time.Duration) error
}

// Options configures a capture session.
type Options struct {
	Device      string
	WaitDevice  bool
	DeviceWait  time.Duration
	ScanTimeout time.Duration
	// Echo receives scanner lines that do not carry an ISBN.
	Echo func(string)
}

// Session acquires a single ISBN from the camera.
type Session struct {
	profile Profile
	scanner Scanner
	overlay Overlay
	waiter  DeviceWaiter
	opts    Options
	logger  *slog.Logger
}

// NewSession wires a capture session. overlay may be nil for profiles that do
// not use it; waiter may be nil when device waiting is disabled.
func NewSession(profile Profile, scanner Scanner, overlay Overlay, waiter DeviceWaiter, opts Options, logger *slog.Logger) (*Session, error) {
	if scanner == nil {
		return nil, errors.New("camera session requires a scanner")
	}
	if profile.UsesOverlay() && overlay == nil {
		return nil, fmt.Errorf("camera profile %s requires an overlay controller", profile)
	}
	if opts.WaitDevice && waiter == nil {
		return nil, errors.New("device wait enabled without a device waiter")
	}
	return &Session{
		profile: profile,
		scanner: scanner,
		overlay: overlay,
		waiter:  waiter,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "camera"),
	}, nil
}

// Profile returns the session's capture profile.
func (s *Session) Profile() Profile {
	return s.profile
}

// Acquire runs the scan and returns the first Bookland ISBN seen. When the
// scanner output ends without a match the error is marked
// services.ErrAcquisitionMiss. The scanner is terminated and the overlay
// disabled before Acquire returns, whatever the outcome.
func (s *Session) Acquire(ctx context.Context) (code string, err error) {
	ctx = services.WithProfile(ctx, s.profile.String())
	logger := logging.WithContext(ctx, s.logger)

	if s.opts.WaitDevice {
		if err := s.waiter.WaitForDevice(ctx, s.opts.Device, s.opts.DeviceWait); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "acquire", "wait for device", s.opts.Device, err)
		}
	}

	if s.profile.UsesOverlay() {
		if err := s.overlay.SetOverlay(ctx, true); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "acquire", "enable overlay", "", err)
		}
		defer func() {
			// The overlay must go dark even when the scan context is already cancelled.
			offErr := s.overlay.SetOverlay(context.WithoutCancel(ctx), false)
			if offErr == nil {
				return
			}
			if err == nil {
				code = ""
				err = services.Wrap(services.ErrExternalTool, "acquire", "disable overlay", "", offErr)
				return
			}
			logging.WarnWithContext(logger, "failed to disable camera overlay", "overlay_disable_failed",
				logging.Error(offErr),
				logging.String(logging.FieldErrorHint, "run v4l2-ctl --overlay=0 manually"),
				logging.String(logging.FieldImpact, "camera preview may stay on"),
			)
		}()
	}

	scanCtx := ctx
	if s.opts.ScanTimeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, s.opts.ScanTimeout)
		defer cancel()
	}

	proc, err := s.scanner.Start(scanCtx, s.profile)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "acquire", "start scanner", "", err)
	}

	started := time.Now()
	code, found := isbn.Extract(proc.Lines(), s.opts.Echo)
	s.release(logger, proc)

	if !found {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err := proc.Err(); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "acquire", "read scanner output", "", err)
		}
		reason := "scanner output ended without a Bookland barcode"
		if errors.Is(scanCtx.Err(), context.DeadlineExceeded) {
			reason = fmt.Sprintf("no Bookland barcode within %s", s.opts.ScanTimeout)
		}
		return "", services.Wrap(services.ErrAcquisitionMiss, "acquire", "scan", reason, nil)
	}

	logger.Info("barcode acquired",
		logging.String(logging.FieldEventType, "barcode_acquired"),
		logging.String(logging.FieldISBN, code),
		logging.Duration("scan_duration", time.Since(started)),
	)
	return code, nil
}

// release terminates the scanner exactly once and reaps it.
func (s *Session) release(logger *slog.Logger, proc Process) {
	if err := proc.Terminate(); err != nil {
		logging.WarnWithContext(logger, "failed to terminate scanner", "scanner_terminate_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for a leftover zbarcam process"),
			logging.String(logging.FieldImpact, "camera device may remain busy"),
		)
	}
	if err := proc.Wait(); err != nil {
		logger.Debug("scanner exited with error", logging.Error(err))
	}
}
