package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"bookscan/internal/logging"
)

// UdevWaiter waits for a video4linux device node using udev netlink events.
type UdevWaiter struct {
	logger *slog.Logger
	exists func(string) bool
}

// NewUdevWaiter constructs a waiter backed by the kernel netlink socket.
func NewUdevWaiter(logger *slog.Logger) *UdevWaiter {
	return &UdevWaiter{
		logger: logging.NewComponentLogger(logger, "udev"),
		exists: deviceExists,
	}
}

// WaitForDevice returns immediately when device exists, otherwise it listens
// for a video4linux add event naming device until timeout elapses.
func (w *UdevWaiter) WaitForDevice(ctx context.Context, device string, timeout time.Duration) error {
	device = strings.TrimSpace(device)
	if device == "" {
		return errors.New("no camera device configured")
	}
	if w.exists(device) {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect netlink socket: %w", err)
	}
	defer conn.Close()

	matcher := videoAddMatcher()
	if err := matcher.Compile(); err != nil {
		return fmt.Errorf("compile uevent matcher: %w", err)
	}
	done := make(chan struct{})
	defer close(done)
	events, errs := watchUEvents(conn, matcher, done)

	// The node may have appeared between the first check and subscribing.
	if w.exists(device) {
		return nil
	}

	w.logger.Info("waiting for camera device",
		logging.String(logging.FieldEventType, "device_wait_started"),
		logging.String("device", device),
		logging.Duration("timeout", timeout),
	)

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expired:
			return fmt.Errorf("camera device %s did not appear within %s", device, timeout)
		case uevent, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if eventDevice(uevent) != device {
				w.logger.Debug("ignoring event for other device",
					logging.String("device", eventDevice(uevent)),
					logging.String("configured_device", device),
				)
				continue
			}
			w.logger.Info("camera device detected",
				logging.String(logging.FieldEventType, "device_detected"),
				logging.String("device", device),
			)
			return nil
		case err := <-errs:
			return fmt.Errorf("netlink monitor: %w", err)
		}
	}
}

type ueventReader interface {
	ReadMsg() ([]byte, error)
}

// watchUEvents reads uevents from src in a goroutine and delivers the ones
// matcher accepts. Unparseable messages are dropped. The goroutine stops on
// the first read failure, which is sent on the buffered error channel, or
// once done is closed. It never blocks on a send after done is closed.
func watchUEvents(src ueventReader, matcher netlink.Matcher, done <-chan struct{}) (<-chan netlink.UEvent, <-chan error) {
	events := make(chan netlink.UEvent)
	errs := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			select {
			case <-done:
				return
			default:
			}
			msg, err := src.ReadMsg()
			if err != nil {
				errs <- err
				return
			}
			uevent, err := netlink.ParseUEvent(msg)
			if err != nil || !matcher.Evaluate(*uevent) {
				continue
			}
			select {
			case events <- *uevent:
			case <-done:
				return
			}
		}
	}()
	return events, errs
}

// videoAddMatcher matches SUBSYSTEM=video4linux, ACTION=add.
func videoAddMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

// eventDevice returns the /dev path a uevent refers to.
func eventDevice(uevent netlink.UEvent) string {
	name := uevent.Env["DEVNAME"]
	if name == "" {
		devpath := uevent.Env["DEVPATH"]
		if devpath == "" {
			return ""
		}
		parts := strings.Split(devpath, "/")
		name = parts[len(parts)-1]
	}
	if !strings.HasPrefix(name, "/") {
		name = "/dev/" + name
	}
	return name
}

func deviceExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
