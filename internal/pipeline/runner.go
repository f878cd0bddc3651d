package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookscan/internal/book"
	"bookscan/internal/camera"
	"bookscan/internal/isbn"
	"bookscan/internal/logging"
	"bookscan/internal/services"
)

// Stage names the step a run reached.
type Stage string

const (
	StageSelectMode  Stage = "select_mode"
	StageAcquireISBN Stage = "acquire"
	StageFetch       Stage = "fetch"
	StageParse       Stage = "parse"
	StageStore       Stage = "store"
	StageDone        Stage = "done"
)

// Acquirer obtains an ISBN from the camera.
type Acquirer interface {
	Acquire(ctx context.Context, profile camera.Profile) (string, error)
}

// Fetcher retrieves the raw lookup response for an ISBN.
type Fetcher interface {
	Fetch(ctx context.Context, isbn string) ([]byte, error)
}

// Parser turns a lookup response into a record.
type Parser interface {
	Parse(body []byte) (book.Record, error)
}

// Store persists records.
type Store interface {
	Put(ctx context.Context, rec book.Record) error
}

// Runner executes a single run. Acquirer may be nil when only direct mode is used.
type Runner struct {
	Acquirer Acquirer
	Fetcher  Fetcher
	Parser   Parser
	Store    Store
	Logger   *slog.Logger
}

// Result describes how far a run got.
type Result struct {
	Mode   Mode
	ISBN   string
	Record book.Record
	// Stage is StageDone on success, otherwise the stage that failed.
	Stage Stage
}

// Run walks SelectMode, AcquireISBN, Fetch, Parse, Store. A failing stage
// ends the run; nothing is stored unless parsing succeeded. Returned errors
// carry one of the services markers (ErrAcquisitionMiss, ErrFetch, ErrParse,
// ErrStore) so callers can derive the exit status.
func (r *Runner) Run(ctx context.Context, mode Mode) (Result, error) {
	result := Result{Mode: mode, Stage: StageSelectMode}
	logger := logging.NewComponentLogger(r.Logger, "pipeline")

	result.Stage = StageAcquireISBN
	stageCtx := services.WithStage(ctx, string(result.Stage))
	code, err := r.acquire(stageCtx, mode, logger)
	if err != nil {
		return result, err
	}
	result.ISBN = code
	ctx = services.WithISBN(ctx, code)

	result.Stage = StageFetch
	stageCtx = services.WithStage(ctx, string(result.Stage))
	started := time.Now()
	body, err := r.Fetcher.Fetch(stageCtx, code)
	if err != nil {
		return result, ensureMarked(err, services.ErrFetch, result.Stage)
	}
	logging.WithContext(stageCtx, logger).Debug("lookup response received",
		logging.Int("bytes", len(body)),
		logging.Duration("fetch_duration", time.Since(started)),
	)

	result.Stage = StageParse
	rec, err := r.Parser.Parse(body)
	if err != nil {
		return result, ensureMarked(err, services.ErrParse, result.Stage)
	}
	rec.ISBN = code

	result.Stage = StageStore
	stageCtx = services.WithStage(ctx, string(result.Stage))
	if err := r.Store.Put(stageCtx, rec); err != nil {
		return result, ensureMarked(err, services.ErrStore, result.Stage)
	}

	result.Record = rec
	result.Stage = StageDone
	logging.WithContext(ctx, logger).Info("record stored",
		logging.String(logging.FieldEventType, "record_stored"),
		logging.String("title", rec.Title),
		logging.String("author", rec.Author),
		logging.String("publisher", rec.Publisher),
	)
	return result, nil
}

func (r *Runner) acquire(ctx context.Context, mode Mode, logger *slog.Logger) (string, error) {
	if mode.Kind == ModeCamera {
		if r.Acquirer == nil {
			return "", services.Wrap(services.ErrConfiguration, string(StageAcquireISBN), "camera", "no camera acquirer configured", nil)
		}
		return r.Acquirer.Acquire(services.WithProfile(ctx, mode.Profile.String()), mode.Profile)
	}

	code := isbn.Normalize(mode.trimmedInput())
	if code == "" {
		return "", services.Wrap(services.ErrConfiguration, string(StageAcquireISBN), "direct", "empty ISBN argument", nil)
	}
	if !isbn.Valid(code) {
		logging.WarnWithContext(logging.WithContext(services.WithISBN(ctx, code), logger),
			"argument is not a valid ISBN-13", "isbn_invalid",
			logging.String("input", mode.Input),
			logging.String(logging.FieldErrorHint, "check the digits printed under the barcode"),
			logging.String(logging.FieldImpact, "lookup proceeds with the value as given"),
		)
	}
	return code, nil
}

func ensureMarked(err, marker error, stage Stage) error {
	if errors.Is(err, marker) || errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(marker, string(stage), "", "", err)
}
