package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must be set")
	}
	if c.Store.LockTimeoutSeconds < 0 {
		return errors.New("store.lock_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLookup() error {
	parsed, err := url.Parse(c.Lookup.Endpoint)
	if err != nil {
		return fmt.Errorf("lookup.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("lookup.endpoint must be an http(s) URL, got %q", c.Lookup.Endpoint)
	}
	if parsed.Host == "" {
		return fmt.Errorf("lookup.endpoint is missing a host: %q", c.Lookup.Endpoint)
	}
	if c.Lookup.TimeoutSeconds <= 0 {
		return errors.New("lookup.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateCamera() error {
	switch c.Camera.DefaultProfile {
	case "rpi", "uvc":
	default:
		return fmt.Errorf("camera.default_profile must be \"rpi\" or \"uvc\", got %q", c.Camera.DefaultProfile)
	}
	if c.Camera.WaitForDevice && c.Camera.Device == "" {
		return errors.New("camera.device must be set when camera.wait_for_device is true")
	}
	if c.Camera.ScanTimeoutSeconds < 0 {
		return errors.New("camera.scan_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
