// Package predict runs the benchmark's prediction side: the two query
// protocols (direct choice and per-option yes/no verification), the
// aggregation of verification votes into a single choice, and the resumable
// batch runner that persists one row per expression.
package predict

import (
	"context"

	"github.com/stellarlinkco/idiom-eval/internal/gold"
)

// Predictor resolves one expression to a chosen option index.
type Predictor interface {
	// Protocol reports the protocol name stored with every prediction,
	// "direct" or "verify".
	Protocol() string
	Predict(ctx context.Context, row gold.Row) (*Result, error)
}

// Result is the in-memory outcome of one resolved expression.
type Result struct {
	// Index is the chosen option, 0 to 3 in canonical A-D order.
	Index int
	// RawAnswer is the reply text, or the four per-option replies joined
	// with " | " under verification.
	RawAnswer string
	// Votes is a '0'/'1' character per option in canonical order, empty
	// for the direct protocol.
	Votes string
	// YesCount is the number of affirmative verification answers.
	YesCount       int
	AmbiguousZero  bool
	AmbiguousMulti bool
}
