package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"bookscan/internal/book"
	"bookscan/internal/pipeline"
	"bookscan/internal/recordstore"
	"bookscan/internal/services"
)

func TestDirectModeStoresRecord(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)

	out, stderr, code := runCLI(t, []string{"978-0-13-468599-1"}, env.configPath)
	if code != services.ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if got := env.lookup.isbns(); !slices.Equal(got, []string{"9780134685991"}) {
		t.Fatalf("unexpected lookups %v", got)
	}
	wantLines := []string{">> isbn=9780134685991", "Effective Modern C++", "Scott Meyers", "2014", "O'Reilly", ""}
	if got := strings.Split(strings.TrimSuffix(out, "\n"), "\n"); !slices.Equal(got, wantLines) {
		t.Fatalf("stdout lines = %q, want %q", got, wantLines)
	}

	listOut, stderr, code := runCLI(t, []string{"records", "list", "--json"}, env.configPath)
	if code != services.ExitSuccess {
		t.Fatalf("records list exit %d: %s", code, stderr)
	}
	var entries []recordstore.Entry
	if err := json.Unmarshal([]byte(listOut), &entries); err != nil {
		t.Fatalf("decode list: %v\n%s", err, listOut)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one stored record, got %d", len(entries))
	}
	rec := entries[0].Record
	if rec.ISBN != "9780134685991" || rec.Title != "Effective Modern C++" || rec.Publisher != "O'Reilly" || rec.Transcript != "" {
		t.Fatalf("unexpected stored record %+v", rec)
	}
	if entries[0].Source != env.lookup.URL {
		t.Fatalf("expected source %q, got %q", env.lookup.URL, entries[0].Source)
	}
}

func TestDirectModeOverwritesExistingRecord(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)

	if _, stderr, code := runCLI(t, []string{"9780134685991"}, env.configPath); code != 0 {
		t.Fatalf("first run exit %d: %s", code, stderr)
	}
	env.lookup.mu.Lock()
	env.lookup.body = strings.Replace(effectiveModernCPPXML, "2014", "2015", 1)
	env.lookup.mu.Unlock()
	if _, stderr, code := runCLI(t, []string{"9780134685991"}, env.configPath); code != 0 {
		t.Fatalf("second run exit %d: %s", code, stderr)
	}

	out, _, code := runCLI(t, []string{"records", "show", "9780134685991", "--json"}, env.configPath)
	if code != 0 {
		t.Fatalf("records show exit %d", code)
	}
	var entry recordstore.Entry
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if entry.Record.PubDate != "2015" {
		t.Fatalf("expected last write to win, got %+v", entry.Record)
	}
}

func TestParseFailureStoresNothing(t *testing.T) {
	env := setupCLITestEnv(t, noPublisherXML)

	_, stderr, code := runCLI(t, []string{"9780134685991"}, env.configPath)
	if code != services.ExitLookup {
		t.Fatalf("expected exit %d, got %d (stderr %s)", services.ExitLookup, code, stderr)
	}
	requireContains(t, stderr, "publisher")

	out, _, code := runCLI(t, []string{"records", "list"}, env.configPath)
	if code != 0 {
		t.Fatalf("records list exit %d", code)
	}
	requireContains(t, out, "No records stored")
}

func TestFetchFailureExitStatus(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	env.lookup.Close()

	_, stderr, code := runCLI(t, []string{"9780134685991"}, env.configPath)
	if code != services.ExitLookup {
		t.Fatalf("expected exit %d, got %d (stderr %s)", services.ExitLookup, code, stderr)
	}
	requireContains(t, stderr, "hint:")
}

func TestStoreLockedExitStatus(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	holder, err := recordstore.Open(t.Context(), recordstore.Options{Path: env.cfg.Store.Path})
	if err != nil {
		t.Fatalf("open holder: %v", err)
	}
	defer holder.Close()

	out, _, code := runCLI(t, []string{"9780134685991"}, env.configPath)
	if code != services.ExitStore {
		t.Fatalf("expected exit %d, got %d", services.ExitStore, code)
	}
	if out != "" {
		t.Fatalf("expected no record output on store failure, got %q", out)
	}
}

func TestCameraUVCScansWithStubScanner(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	bin := filepath.Join(env.baseDir, "bin")
	env.cfg.Camera.ScannerBinary = writeScript(t, bin, "zbarcam",
		"echo 'QR-Code:https://example.com'\necho 'EAN-13:9780134685991'\nexec sleep 30\n")
	env.cfg.Camera.OverlayBinary = filepath.Join(bin, "missing-v4l2-ctl")
	env.rewriteConfig(t)

	out, stderr, code := runCLI(t, []string{"uvc"}, env.configPath)
	if code != services.ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	requireContains(t, out, "QR-Code:https://example.com")
	requireContains(t, out, "Effective Modern C++")
	if got := env.lookup.isbns(); !slices.Equal(got, []string{"9780134685991"}) {
		t.Fatalf("unexpected lookups %v", got)
	}
}

func TestCameraRPiTogglesOverlay(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	bin := filepath.Join(env.baseDir, "bin")
	overlayLog := filepath.Join(env.baseDir, "overlay.log")
	env.cfg.Camera.ScannerBinary = writeScript(t, bin, "zbarcam",
		"echo \"args: $*\"\necho 'EAN-13:9780134685991'\nexec sleep 30\n")
	env.cfg.Camera.OverlayBinary = writeScript(t, bin, "v4l2-ctl",
		"echo \"$*\" >> '"+overlayLog+"'\n")
	env.rewriteConfig(t)

	out, stderr, code := runCLI(t, nil, env.configPath)
	if code != services.ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	requireContains(t, out, "args: -v --nodisplay --prescale=640x480")

	data, err := os.ReadFile(overlayLog)
	if err != nil {
		t.Fatalf("read overlay log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"--device=" + env.cfg.Camera.Device + " --overlay=1",
		"--device=" + env.cfg.Camera.Device + " --overlay=0",
	}
	if !slices.Equal(lines, want) {
		t.Fatalf("overlay calls = %q, want %q", lines, want)
	}
}

func TestCameraMissExitStatus(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	bin := filepath.Join(env.baseDir, "bin")
	overlayLog := filepath.Join(env.baseDir, "overlay.log")
	env.cfg.Camera.ScannerBinary = writeScript(t, bin, "zbarcam",
		"echo 'EAN-13:4901234567894'\necho 'EAN-13:9780134685991extra'\n")
	env.cfg.Camera.OverlayBinary = writeScript(t, bin, "v4l2-ctl",
		"echo \"$*\" >> '"+overlayLog+"'\n")
	env.rewriteConfig(t)

	out, _, code := runCLI(t, []string{"rpi"}, env.configPath)
	if code != services.ExitMiss {
		t.Fatalf("expected exit %d, got %d", services.ExitMiss, code)
	}
	requireContains(t, out, "EAN-13:4901234567894")
	if got := env.lookup.isbns(); len(got) != 0 {
		t.Fatalf("expected no lookup, got %v", got)
	}
	data, err := os.ReadFile(overlayLog)
	if err != nil {
		t.Fatalf("read overlay log: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(string(data)), "--overlay=0") {
		t.Fatalf("expected overlay to be disabled after a miss, got %q", data)
	}
}

func TestCameraMissingScannerFailsFast(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	env.cfg.Camera.ScannerBinary = filepath.Join(env.baseDir, "bin", "zbarcam")
	env.rewriteConfig(t)

	_, stderr, code := runCLI(t, []string{"uvc"}, env.configPath)
	if code != services.ExitFailure {
		t.Fatalf("expected exit %d, got %d", services.ExitFailure, code)
	}
	requireContains(t, stderr, "zbarcam")
	requireContains(t, stderr, "bookscan doctor")
}

func TestTooManyArgumentsIsUsageFailure(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	_, _, code := runCLI(t, []string{"9780134685991", "extra"}, env.configPath)
	if code != services.ExitFailure {
		t.Fatalf("expected exit %d, got %d", services.ExitFailure, code)
	}
	if got := env.lookup.isbns(); len(got) != 0 {
		t.Fatalf("expected no lookup, got %v", got)
	}
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseThenPrintSuppressesRecordOnCloseFailure(t *testing.T) {
	result := pipeline.Result{ISBN: "9780134685991", Record: book.Record{ISBN: "9780134685991", Title: "Effective Modern C++"}}
	closeErr := services.Wrap(services.ErrStore, "store", "close", "", errors.New("checkpoint wal: disk I/O error"))

	var out bytes.Buffer
	err := closeThenPrint(&out, failingCloser{err: closeErr}, result)
	if services.ExitCode(err) != services.ExitStore {
		t.Fatalf("expected store exit code, got %d (%v)", services.ExitCode(err), err)
	}
	if out.Len() != 0 {
		t.Fatalf("record printed despite close failure: %q", out.String())
	}

	out.Reset()
	if err := closeThenPrint(&out, failingCloser{}, result); err != nil {
		t.Fatalf("closeThenPrint: %v", err)
	}
	requireContains(t, out.String(), ">> isbn=9780134685991")
	requireContains(t, out.String(), "Effective Modern C++")
}
