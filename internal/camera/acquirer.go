package camera

import (
	"context"
	"log/slog"
)

// Acquirer builds a Session for the requested profile and runs it.
type Acquirer struct {
	Scanner Scanner
	Overlay Overlay
	Waiter  DeviceWaiter
	Options Options
	Logger  *slog.Logger
}

// Acquire runs one capture session with profile.
func (a *Acquirer) Acquire(ctx context.Context, profile Profile) (string, error) {
	var overlay Overlay
	if profile.UsesOverlay() {
		overlay = a.Overlay
	}
	session, err := NewSession(profile, a.Scanner, overlay, a.Waiter, a.Options, a.Logger)
	if err != nil {
		return "", err
	}
	return session.Acquire(ctx)
}
