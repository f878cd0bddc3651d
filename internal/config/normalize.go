package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeLookup()
	c.normalizeCamera()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	if value, ok := os.LookupEnv("BOOKSCAN_STORE_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Store.Path = value
	}
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, defaultStoreFile)
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if c.Store.LockTimeoutSeconds < 0 {
		c.Store.LockTimeoutSeconds = 0
	}
	return nil
}

func (c *Config) normalizeLookup() {
	if value, ok := os.LookupEnv("BOOKSCAN_LOOKUP_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Lookup.Endpoint = value
	}
	c.Lookup.Endpoint = strings.TrimSpace(c.Lookup.Endpoint)
	if c.Lookup.Endpoint == "" {
		c.Lookup.Endpoint = defaultLookupEndpoint
	}
	c.Lookup.UserAgent = strings.TrimSpace(c.Lookup.UserAgent)
	if c.Lookup.UserAgent == "" {
		c.Lookup.UserAgent = defaultLookupUserAgent
	}
}

func (c *Config) normalizeCamera() {
	c.Camera.DefaultProfile = strings.ToLower(strings.TrimSpace(c.Camera.DefaultProfile))
	if c.Camera.DefaultProfile == "" {
		c.Camera.DefaultProfile = defaultCameraProfile
	}
	c.Camera.Device = strings.TrimSpace(c.Camera.Device)
	c.Camera.ScannerBinary = strings.TrimSpace(c.Camera.ScannerBinary)
	if c.Camera.ScannerBinary == "" {
		c.Camera.ScannerBinary = defaultScannerBinary
	}
	c.Camera.OverlayBinary = strings.TrimSpace(c.Camera.OverlayBinary)
	if c.Camera.OverlayBinary == "" {
		c.Camera.OverlayBinary = defaultOverlayBinary
	}
	if c.Camera.DeviceWaitSeconds <= 0 {
		c.Camera.DeviceWaitSeconds = defaultDeviceWaitSeconds
	}
	if c.Camera.TerminateGraceSeconds <= 0 {
		c.Camera.TerminateGraceSeconds = defaultTerminateGraceSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
