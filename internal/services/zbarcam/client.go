package zbarcam

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookscan/internal/camera"
)

// Executor abstracts process creation for testability.
type Executor interface {
	Start(ctx context.Context, binary string, args []string) (camera.Process, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithDevice passes an explicit video device to the scanner.
func WithDevice(device string) Option {
	return func(c *Client) {
		c.device = strings.TrimSpace(device)
	}
}

// WithTerminateGrace sets how long Terminate waits after SIGTERM before SIGKILL.
func WithTerminateGrace(grace time.Duration) Option {
	return func(c *Client) {
		if grace > 0 {
			c.grace = grace
		}
	}
}

const defaultTerminateGrace = 2 * time.Second

// Client wraps zbarcam CLI interactions.
type Client struct {
	binary string
	device string
	grace  time.Duration
	exec   Executor
}

// New constructs a zbarcam client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("zbarcam binary required")
	}
	client := &Client{binary: binary, grace: defaultTerminateGrace}
	for _, opt := range opts {
		opt(client)
	}
	if client.exec == nil {
		client.exec = commandExecutor{grace: client.grace}
	}
	return client, nil
}

// Start launches the scanner for profile. The process runs until the caller
// terminates it or ctx is cancelled.
func (c *Client) Start(ctx context.Context, profile camera.Profile) (camera.Process, error) {
	return c.exec.Start(ctx, c.binary, Args(profile, c.device))
}

// Args returns the scanner arguments for a profile. The camera module runs
// headless with verbose symbol output at reduced resolution; generic USB
// cameras use zbarcam's defaults and its preview window.
func Args(profile camera.Profile, device string) []string {
	var args []string
	if profile == camera.ProfileRPi {
		args = append(args, "-v", "--nodisplay", "--prescale=640x480")
	}
	if device != "" {
		args = append(args, device)
	}
	return args
}
