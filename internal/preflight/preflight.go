package preflight

import (
	"context"

	"bookscan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckStoreLock("Record store", cfg.Store.Path),
	}

	if cfg.Camera.Device != "" {
		results = append(results, CheckDevice("Camera device", cfg.Camera.Device, cfg.Camera.WaitForDevice))
	}

	results = append(results, CheckLookupEndpoint(ctx, "Lookup API", cfg.Lookup.Endpoint, cfg.Lookup.UserAgent, cfg.LookupTimeout()))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
