package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"bookscan/internal/config"
	"bookscan/internal/deps"
	"bookscan/internal/recordstore"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDevice verifies that a V4L2 device node exists and can be opened for
// capture. When waitable is true a missing node passes, since the scan waits
// for it to appear.
func CheckDevice(name, path string, waitable bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if waitable {
				return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent; scans wait for hot-plug)", path)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: device not present)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no access, check video group membership: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (ready)", path)}
}

// CheckStoreLock reports whether another process holds the record store's
// write lock. A store that does not exist yet passes.
func CheckStoreLock(name, storePath string) Result {
	storePath = strings.TrimSpace(storePath)
	if storePath == "" {
		return Result{Name: name, Detail: "store path not configured"}
	}
	if _, err := os.Stat(storePath); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", storePath)}
	}
	lock := flock.New(recordstore.LockPath(storePath))
	ok, err := lock.TryRLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: lock: %v)", storePath, err)}
	}
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: locked by another bookscan process)", storePath)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", storePath)}
}

// CheckLookupEndpoint verifies that the bibliographic search endpoint answers.
// Any response below 500 counts as reachable.
func CheckLookupEndpoint(ctx context.Context, name, endpoint, userAgent string, timeout time.Duration) Result {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Result{Name: name, Detail: "missing endpoint"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d)", resp.StatusCode)}
}

// Tool names reported by CheckSystemDeps.
const (
	ScannerToolName = "zbarcam"
	OverlayToolName = "v4l2-ctl"
)

// CheckSystemDeps evaluates the external tools needed for camera scans. The
// overlay tool is optional unless the default profile drives the preview.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        ScannerToolName,
			Command:     cfg.Camera.ScannerBinary,
			Description: "Required for camera barcode scanning",
		},
		{
			Name:        OverlayToolName,
			Command:     cfg.Camera.OverlayBinary,
			Description: "Toggles the preview overlay for the rpi profile",
			Optional:    cfg.Camera.DefaultProfile != "rpi",
		},
	}
	return deps.CheckBinaries(requirements)
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
