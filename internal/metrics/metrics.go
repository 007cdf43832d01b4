// Package metrics aggregates stored predictions and discrepancies into the
// per-model overview the CLI, the CSV export and the results API all serve.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/discrepancy"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

// Store is the read surface the aggregator needs.
type Store interface {
	ListModels(ctx context.Context) ([]string, error)
	ListPredictions(ctx context.Context, modelID string) ([]*store.Prediction, error)
	ListDiscrepancies(ctx context.Context, modelID string) ([]*store.Discrepancy, error)
}

// ModelOverview carries one model's result counts. Accuracy is only
// meaningful while AccuracyDefined is true; a model with no predictions has
// no accuracy at all, which is not the same as zero.
type ModelOverview struct {
	ModelID         string
	Predictions     int
	Discrepancies   int
	Accuracy        float64
	AccuracyDefined bool

	Concrete int
	Abstract int
	Random   int
	Unknown  int

	AmbiguousZero  int
	AmbiguousMulti int
}

// CategoryPercent reports a category's share of the discrepancies, 0 when
// the model has none.
func (o *ModelOverview) CategoryPercent(category string) float64 {
	if o == nil || o.Discrepancies == 0 {
		return 0
	}
	var n int
	switch category {
	case discrepancy.CategoryConcrete:
		n = o.Concrete
	case discrepancy.CategoryAbstract:
		n = o.Abstract
	case discrepancy.CategoryRandom:
		n = o.Random
	case discrepancy.CategoryUnknown:
		n = o.Unknown
	}
	return 100 * float64(n) / float64(o.Discrepancies)
}

// AmbiguousZeroRate reports the share of predictions with no affirmative
// verification answer, 0 when the model has no predictions.
func (o *ModelOverview) AmbiguousZeroRate() float64 {
	if o == nil || o.Predictions == 0 {
		return 0
	}
	return 100 * float64(o.AmbiguousZero) / float64(o.Predictions)
}

// AmbiguousMultiRate reports the share of predictions with more than one
// affirmative verification answer.
func (o *ModelOverview) AmbiguousMultiRate() float64 {
	if o == nil || o.Predictions == 0 {
		return 0
	}
	return 100 * float64(o.AmbiguousMulti) / float64(o.Predictions)
}

// AccuracyLabel renders the accuracy as a percentage, or "n/a" for a model
// without predictions.
func (o *ModelOverview) AccuracyLabel() string {
	if o == nil || !o.AccuracyDefined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", 100*o.Accuracy)
}

// Aggregator computes overviews from the store.
type Aggregator struct {
	store  Store
	logger log.Logger
}

func NewAggregator(st Store, logger log.Logger) (*Aggregator, error) {
	if st == nil {
		return nil, errors.New("metrics: nil store")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Aggregator{store: st, logger: logger}, nil
}

// ModelOverview aggregates a single model.
func (a *Aggregator) ModelOverview(ctx context.Context, modelID string) (*ModelOverview, error) {
	if a == nil {
		return nil, errors.New("metrics: nil aggregator")
	}
	if ctx == nil {
		return nil, errors.New("metrics: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("metrics: missing model id")
	}

	preds, err := a.store.ListPredictions(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("metrics: load predictions for %q: %w", modelID, err)
	}
	discs, err := a.store.ListDiscrepancies(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("metrics: load discrepancies for %q: %w", modelID, err)
	}

	o := &ModelOverview{
		ModelID:       modelID,
		Predictions:   len(preds),
		Discrepancies: len(discs),
	}
	for _, p := range preds {
		if p.AmbiguousZero {
			o.AmbiguousZero++
		}
		if p.AmbiguousMulti {
			o.AmbiguousMulti++
		}
	}
	for _, d := range discs {
		switch d.Category {
		case discrepancy.CategoryConcrete:
			o.Concrete++
		case discrepancy.CategoryAbstract:
			o.Abstract++
		case discrepancy.CategoryRandom:
			o.Random++
		case discrepancy.CategoryUnknown:
			o.Unknown++
		default:
			a.logger.Warn("unrecognized discrepancy category",
				"model", modelID, "expression", d.Expression, "category", d.Category)
		}
	}
	if o.Predictions > 0 {
		o.Accuracy = 1 - float64(o.Discrepancies)/float64(o.Predictions)
		o.AccuracyDefined = true
	}
	return o, nil
}

// Overview aggregates every model with stored predictions, sorted by
// discrepancy count ascending so the strongest model comes first; ties break
// on model id.
func (a *Aggregator) Overview(ctx context.Context) ([]*ModelOverview, error) {
	if a == nil {
		return nil, errors.New("metrics: nil aggregator")
	}
	if ctx == nil {
		return nil, errors.New("metrics: nil context")
	}

	models, err := a.store.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("metrics: list models: %w", err)
	}

	out := make([]*ModelOverview, 0, len(models))
	for _, modelID := range models {
		o, err := a.ModelOverview(ctx, modelID)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Discrepancies != out[j].Discrepancies {
			return out[i].Discrepancies < out[j].Discrepancies
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out, nil
}
