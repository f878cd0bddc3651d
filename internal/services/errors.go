package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAcquisitionMiss = errors.New("no barcode acquired")
	ErrFetch           = errors.New("fetch error")
	ErrParse           = errors.New("malformed response")
	ErrStore           = errors.New("store error")
	ErrExternalTool    = errors.New("external tool error")
	ErrConfiguration   = errors.New("configuration error")
)

// Exit statuses reported by the bookscan command.
const (
	ExitSuccess = 0
	ExitMiss    = 1
	ExitLookup  = 2
	ExitStore   = 3
	ExitFailure = 4
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a pipeline error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrAcquisitionMiss):
		return ExitMiss
	case errors.Is(err, ErrFetch), errors.Is(err, ErrParse):
		return ExitLookup
	case errors.Is(err, ErrStore):
		return ExitStore
	default:
		return ExitFailure
	}
}

// Hint returns a short operator-facing remedy for a classified error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrAcquisitionMiss):
		return "hold the barcode steady in front of the camera and retry"
	case errors.Is(err, ErrFetch):
		return "check network access to the lookup endpoint"
	case errors.Is(err, ErrParse):
		return "the lookup returned no usable record for this ISBN"
	case errors.Is(err, ErrStore):
		return "check permissions and free space for store.path"
	case errors.Is(err, ErrConfiguration):
		return "run bookscan config validate"
	case errors.Is(err, ErrExternalTool):
		return "run bookscan doctor"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
