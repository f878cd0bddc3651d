package config

const (
	defaultDataDir               = "~/.local/share/bookscan"
	defaultLogDir                = "~/.local/share/bookscan/logs"
	defaultStoreFile             = "books.db"
	defaultStoreLockTimeout      = 5
	defaultLookupEndpoint        = "https://ndlsearch.ndl.go.jp/api/opensearch"
	defaultLookupTimeout         = 10
	defaultLookupUserAgent       = "bookscan/dev"
	defaultCameraProfile         = "rpi"
	defaultCameraDevice          = "/dev/video0"
	defaultScannerBinary         = "zbarcam"
	defaultOverlayBinary         = "v4l2-ctl"
	defaultDeviceWaitSeconds     = 30
	defaultTerminateGraceSeconds = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			LockTimeoutSeconds: defaultStoreLockTimeout,
		},
		Lookup: Lookup{
			Endpoint:       defaultLookupEndpoint,
			TimeoutSeconds: defaultLookupTimeout,
			UserAgent:      defaultLookupUserAgent,
		},
		Camera: Camera{
			DefaultProfile:        defaultCameraProfile,
			Device:                defaultCameraDevice,
			ScannerBinary:         defaultScannerBinary,
			OverlayBinary:         defaultOverlayBinary,
			DeviceWaitSeconds:     defaultDeviceWaitSeconds,
			TerminateGraceSeconds: defaultTerminateGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
