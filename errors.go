package syntaxis

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoStartSymbol is returned for a grammar without @START.
	ErrNoStartSymbol = errors.New("grammar has no start symbol")
	// ErrChartInvariant signals a chart region with no complete edge,
	// which only happens when a word was loaded without any reading.
	ErrChartInvariant = errors.New("chart invariant violated")
	// ErrNoSemanticDB is returned when labeling rules use semantic
	// functions but no <SEMDB> section configures a semantic resource.
	ErrNoSemanticDB = errors.New("semantic function used without a semantic database")
)

// SentenceError reports a sentence skipped during batch processing.
type SentenceError struct {
	// Index is the position of the sentence in the batch.
	Index int
	Err   error
}

func (e *SentenceError) Error() string {
	return fmt.Sprintf("sentence %d: %v", e.Index, e.Err)
}

func (e *SentenceError) Unwrap() error { return e.Err }
