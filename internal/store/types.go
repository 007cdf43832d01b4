package store

import (
	"context"
	"time"
)

// PredictionWriter persists predictions, one row per (model, expression).
type PredictionWriter interface {
	// SavePrediction writes a prediction unless one already exists for the
	// same model and expression. It reports whether a row was written.
	SavePrediction(ctx context.Context, p *Prediction) (bool, error)
}

// PredictionReader reads stored predictions back.
type PredictionReader interface {
	ListPredictions(ctx context.Context, modelID string) ([]*Prediction, error)
	// ProcessedExpressions returns the set of expressions already predicted
	// for a model, keyed by expression text.
	ProcessedExpressions(ctx context.Context, modelID string) (map[string]bool, error)
	// ListModels returns the model ids with stored predictions, sorted.
	ListModels(ctx context.Context) ([]string, error)
}

// DiscrepancyStore persists and reads wrong-answer rows. Discrepancies are
// derived data: classification replaces a model's rows wholesale.
type DiscrepancyStore interface {
	ReplaceDiscrepancies(ctx context.Context, modelID string, rows []*Discrepancy) error
	ListDiscrepancies(ctx context.Context, modelID string) ([]*Discrepancy, error)
}

// Store defines the full persistence surface of the harness.
type Store interface {
	PredictionWriter
	PredictionReader
	DiscrepancyStore
	Close() error
}

// Prediction stores one model's answer for one expression. Votes holds the
// per-option booleans of the verification protocol as a string of '0'/'1' in
// canonical option order; it is empty under the direct protocol.
type Prediction struct {
	ModelID        string
	Expression     string
	Predicted      int // option index 0..3 in canonical order
	Protocol       string
	RawAnswer      string
	Votes          string
	YesCount       int
	AmbiguousZero  bool
	AmbiguousMulti bool
	CreatedAt      time.Time
}

// Discrepancy stores one wrong prediction with its classification and the
// definition text on both sides of the mistake.
type Discrepancy struct {
	ModelID       string
	Expression    string
	Predicted     int
	Correct       int
	Category      string // "concrete", "abstract", "random" or "unknown"
	PredictedText string
	CorrectText   string
	CreatedAt     time.Time
}
