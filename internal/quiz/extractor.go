package quiz

import "github.com/rs/zerolog"

// Extractor turns one rendered quiz review page into question records.
// Implementations must be deterministic: the same markup yields the same
// records.
type Extractor interface {
	Extract(markup string) []Record
}

// HeuristicExtractor classifies questions by inspecting their input controls.
// It holds no per-page state and is safe for concurrent use.
type HeuristicExtractor struct {
	Logger  zerolog.Logger
	Options Options
}

func NewHeuristicExtractor(logger zerolog.Logger, opts Options) *HeuristicExtractor {
	return &HeuristicExtractor{Logger: logger, Options: opts}
}
