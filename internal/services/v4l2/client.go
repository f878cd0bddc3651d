// Package v4l2 toggles the camera preview overlay through v4l2-ctl.
package v4l2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithDevice targets a specific video device instead of v4l2-ctl's default.
func WithDevice(device string) Option {
	return func(c *Client) {
		c.device = strings.TrimSpace(device)
	}
}

// Client wraps v4l2-ctl overlay control.
type Client struct {
	binary string
	device string
	runner Runner
}

// New constructs a v4l2-ctl client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("v4l2-ctl binary required")
	}
	client := &Client{binary: binary, runner: commandRunner{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SetOverlay enables (1) or disables (0) the preview overlay.
func (c *Client) SetOverlay(ctx context.Context, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	var args []string
	if c.device != "" {
		args = append(args, "--device="+c.device)
	}
	args = append(args, "--overlay="+value)
	if err := c.runner.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("v4l2-ctl overlay=%s: %w", value, err)
	}
	return nil
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
