package main

import (
	"os"
	"path/filepath"
	"testing"

	"bookscan/internal/book"
	"bookscan/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)

	out, stderr, code := runCLI(t, []string{"config", "validate"}, env.configPath)
	if code != 0 {
		t.Fatalf("config validate exit %d: %s", code, stderr)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.lookup.URL)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, code = runCLI(t, []string{"config", "init", "--path", target}, "")
	if code != 0 {
		t.Fatalf("config init exit %d", code)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, stderr, code = runCLI(t, []string{"config", "init", "--path", target}, "")
	if code == 0 {
		t.Fatal("expected init to refuse to overwrite")
	}
	requireContains(t, stderr, "--overwrite")

	if _, _, code = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); code != 0 {
		t.Fatalf("config init --overwrite exit %d", code)
	}
}

func TestConfigValidateRejectsBadProfile(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	env.cfg.Camera.DefaultProfile = "webcam"
	env.rewriteConfig(t)

	_, stderr, code := runCLI(t, []string{"config", "validate"}, env.configPath)
	if code == 0 {
		t.Fatal("expected validation failure")
	}
	requireContains(t, stderr, "default_profile")
}

func TestRecordsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.PutRecord(t, store, book.Record{
		ISBN:       "9784101010014",
		Title:      "こころ",
		Author:     "夏目漱石",
		PubDate:    "1952",
		Publisher:  "新潮社",
		Transcript: "ココロ",
	})
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, stderr, code := runCLI(t, []string{"records", "list"}, env.configPath)
	if code != 0 {
		t.Fatalf("records list exit %d: %s", code, stderr)
	}
	requireContains(t, out, "9784101010014")
	requireContains(t, out, "夏目漱石")
	requireContains(t, out, "1 record(s)")

	out, _, code = runCLI(t, []string{"records", "show", "978-4-10-101001-4"}, env.configPath)
	if code != 0 {
		t.Fatalf("records show exit %d", code)
	}
	requireContains(t, out, "ココロ")
	requireContains(t, out, "新潮社")

	_, stderr, code = runCLI(t, []string{"records", "show", "9780000000002"}, env.configPath)
	if code == 0 {
		t.Fatal("expected missing record to fail")
	}
	requireContains(t, stderr, "no record stored")
}

func TestRecordsListEmptyStore(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)

	out, _, code := runCLI(t, []string{"records", "list", "--json"}, env.configPath)
	if code != 0 {
		t.Fatalf("records list exit %d", code)
	}
	requireContains(t, out, "[]")
}

func TestDoctorReportsTools(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("/dev/null not available")
	}
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	bin := filepath.Join(env.baseDir, "bin")
	env.cfg.Camera.ScannerBinary = writeScript(t, bin, "zbarcam", "exit 0\n")
	env.cfg.Camera.OverlayBinary = writeScript(t, bin, "v4l2-ctl", "exit 0\n")
	env.cfg.Camera.Device = "/dev/null"
	env.rewriteConfig(t)

	out, stderr, code := runCLI(t, []string{"doctor"}, env.configPath)
	if code != 0 {
		t.Fatalf("doctor exit %d\n%s\n%s", code, out, stderr)
	}
	requireContains(t, out, "zbarcam")
	requireContains(t, out, "Lookup API")
	requireContains(t, out, "All checks passed")
	requireNotContains(t, out, "\x1b[")
}

func TestDoctorFailsWithoutScanner(t *testing.T) {
	env := setupCLITestEnv(t, effectiveModernCPPXML)
	env.cfg.Camera.ScannerBinary = filepath.Join(env.baseDir, "bin", "zbarcam")
	env.cfg.Camera.Device = ""
	env.rewriteConfig(t)

	out, _, code := runCLI(t, []string{"doctor"}, env.configPath)
	if code == 0 {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "[ERROR]")
}
