package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bookscan/internal/config"
	"bookscan/internal/testsupport"
)

const effectiveModernCPPXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcndl="http://ndl.go.jp/dcndl/terms/" version="2.0">
  <channel>
    <title>9780134685991 - NDL Search</title>
    <item>
      <title>Effective Modern C++</title>
      <dc:title>Effective Modern C++</dc:title>
      <dc:creator>Scott Meyers</dc:creator>
      <dc:publisher>O'Reilly</dc:publisher>
      <pubDate>2014</pubDate>
    </item>
  </channel>
</rss>`

const noPublisherXML = `<rss xmlns:dc="http://purl.org/dc/elements/1.1/"><channel><item>
<dc:title>Effective Modern C++</dc:title><dc:creator>Scott Meyers</dc:creator><pubDate>2014</pubDate>
</item></channel></rss>`

type lookupServer struct {
	*httptest.Server

	mu      sync.Mutex
	queries []string
	body    string
}

func (s *lookupServer) isbns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func newLookupServer(t *testing.T, body string) *lookupServer {
	t.Helper()
	ls := &lookupServer{body: body}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ls.mu.Lock()
		ls.queries = append(ls.queries, r.URL.Query().Get("isbn"))
		ls.mu.Unlock()
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(ls.body))
	}))
	t.Cleanup(ls.Close)
	return ls
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	lookup     *lookupServer
}

func setupCLITestEnv(t *testing.T, body string, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("BOOKSCAN_STORE_PATH", "")
	t.Setenv("BOOKSCAN_LOOKUP_ENDPOINT", "")
	lookup := newLookupServer(t, body)

	opts = append([]testsupport.ConfigOption{testsupport.WithEndpoint(lookup.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		lookup:     lookup,
	}
}

func (e *cliTestEnv) rewriteConfig(t *testing.T) {
	t.Helper()
	writeTestConfig(t, e.configPath, e.cfg)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	testsupport.WriteFixture(t, path, data)
}

// runCLI executes the command tree and returns stdout, stderr, and the exit status.
func runCLI(t *testing.T, args []string, configPath string) (string, string, int) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	code := execute(context.Background(), cmd, &stderr)
	return stdout.String(), stderr.String(), code
}

// writeScript creates an executable shell script under dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
