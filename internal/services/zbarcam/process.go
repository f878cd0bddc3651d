package zbarcam

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"bookscan/internal/camera"
)

type commandExecutor struct {
	grace time.Duration
}

func (e commandExecutor) Start(ctx context.Context, binary string, args []string) (camera.Process, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.grace
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	return newCommandProcess(cmd, stdout, e.grace), nil
}

// commandProcess adapts a started exec.Cmd to camera.Process.
type commandProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	grace  time.Duration

	linesTaken atomic.Bool
	terminated atomic.Bool

	reapOnce sync.Once
	done     chan struct{}
	waitErr  error

	termOnce sync.Once
	termErr  error

	readMu  sync.Mutex
	readErr error
}

// maxLineBytes bounds a single scanner output line. Longer lines are skipped.
const maxLineBytes = 1 << 20

func newCommandProcess(cmd *exec.Cmd, stdout io.Reader, grace time.Duration) *commandProcess {
	return &commandProcess{cmd: cmd, stdout: stdout, grace: grace, done: make(chan struct{})}
}

// Lines yields stdout lines until EOF or until the consumer stops ranging.
// Lines longer than maxLineBytes are dropped. A read failure ends the
// sequence and is reported by Err. A second range yields nothing.
func (p *commandProcess) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !p.linesTaken.CompareAndSwap(false, true) {
			return
		}
		r := bufio.NewReader(p.stdout)
		for {
			line, skipped, err := readLine(r, maxLineBytes)
			if !skipped && (err == nil || line != "") {
				if !yield(line) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && !p.terminated.Load() {
					p.readMu.Lock()
					p.readErr = fmt.Errorf("read scanner output: %w", err)
					p.readMu.Unlock()
				}
				return
			}
		}
	}
}

// Err reports the read failure that ended Lines early, if any.
func (p *commandProcess) Err() error {
	p.readMu.Lock()
	defer p.readMu.Unlock()
	return p.readErr
}

// readLine returns the next line without its terminator. A line over limit
// bytes is consumed and reported as skipped. At EOF the trailing partial line
// is returned together with the error.
func readLine(r *bufio.Reader, limit int) (string, bool, error) {
	var buf []byte
	skipped := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !skipped {
			if len(buf)+len(chunk) > limit+1 {
				skipped = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if skipped {
			return "", true, err
		}
		line := strings.TrimSuffix(string(buf), "\n")
		line = strings.TrimSuffix(line, "\r")
		return line, false, err
	}
}

// reap starts cmd.Wait exactly once. Callers must have finished reading stdout.
func (p *commandProcess) reap() {
	p.reapOnce.Do(func() {
		go func() {
			p.waitErr = p.cmd.Wait()
			close(p.done)
		}()
	})
}

// Terminate sends SIGTERM and escalates to SIGKILL after the grace period.
// Only the first call signals the process.
func (p *commandProcess) Terminate() error {
	p.termOnce.Do(func() {
		p.reap()
		select {
		case <-p.done:
			return
		default:
		}
		p.terminated.Store(true)
		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.termErr = fmt.Errorf("signal scanner: %w", err)
		}
		timer := time.NewTimer(p.grace)
		defer timer.Stop()
		select {
		case <-p.done:
		case <-timer.C:
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.termErr = fmt.Errorf("kill scanner: %w", err)
			}
		}
	})
	return p.termErr
}

// Wait blocks until the scanner has exited. Exits caused by Terminate are not
// reported as errors.
func (p *commandProcess) Wait() error {
	p.reap()
	<-p.done
	if p.terminated.Load() {
		return nil
	}
	if p.waitErr != nil {
		return fmt.Errorf("wait command: %w", p.waitErr)
	}
	return nil
}
