// Package discrepancy classifies wrong predictions against the gold roles.
// Every wrong answer picked one of the three distractors, so its category
// tells which kind of misreading the model made: the concrete
// misinterpretation, the abstract one, or the random definition.
package discrepancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

// Discrepancy categories. Unknown marks a row that matches no gold role,
// which can only happen when the data itself is broken.
const (
	CategoryConcrete = "concrete"
	CategoryAbstract = "abstract"
	CategoryRandom   = "random"
	CategoryUnknown  = "unknown"
)

// Categories returns the category names in reporting order.
func Categories() []string {
	return []string{CategoryConcrete, CategoryAbstract, CategoryRandom, CategoryUnknown}
}

// Store is the slice of the persistence layer the classifier needs.
type Store interface {
	ListPredictions(ctx context.Context, modelID string) ([]*store.Prediction, error)
	ReplaceDiscrepancies(ctx context.Context, modelID string, rows []*store.Discrepancy) error
}

// Classifier joins stored predictions against the gold dataset and rebuilds
// a model's discrepancy rows from scratch.
type Classifier struct {
	dataset *gold.Dataset
	store   Store
	logger  log.Logger
}

func NewClassifier(dataset *gold.Dataset, st Store, logger log.Logger) (*Classifier, error) {
	if dataset == nil {
		return nil, errors.New("discrepancy: nil dataset")
	}
	if st == nil {
		return nil, errors.New("discrepancy: nil store")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Classifier{dataset: dataset, store: st, logger: logger}, nil
}

// Report summarizes one classification run.
type Report struct {
	ModelID       string
	Predictions   int // predictions that joined a gold row
	Correct       int
	Discrepancies int
	Concrete      int
	Abstract      int
	Random        int
	Unknown       int // rows matching no role; data integrity problem
	Unjoined      int // predictions whose expression is not in gold
	Uncovered     int // gold expressions with no prediction yet
}

// CategoryCount returns the report's count for a category name.
func (r *Report) CategoryCount(category string) int {
	if r == nil {
		return 0
	}
	switch category {
	case CategoryConcrete:
		return r.Concrete
	case CategoryAbstract:
		return r.Abstract
	case CategoryRandom:
		return r.Random
	case CategoryUnknown:
		return r.Unknown
	}
	return 0
}

// Classify recomputes the model's discrepancy rows and replaces the stored
// set in one transaction. Predictions that do not join the gold data are
// logged and counted but never classified; a prediction matching no gold
// role is kept as CategoryUnknown and logged at error level rather than
// silently coerced.
func (c *Classifier) Classify(ctx context.Context, modelID string) (*Report, error) {
	if c == nil {
		return nil, errors.New("discrepancy: nil classifier")
	}
	if ctx == nil {
		return nil, errors.New("discrepancy: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("discrepancy: missing model id")
	}

	preds, err := c.store.ListPredictions(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("discrepancy: load predictions: %w", err)
	}

	report := &Report{ModelID: modelID}
	rows := make([]*store.Discrepancy, 0, len(preds))
	covered := make(map[string]bool, len(preds))

	for _, pred := range preds {
		goldRow, ok := c.dataset.Lookup(pred.Expression)
		if !ok {
			c.logger.Warn("prediction does not join the gold data",
				"model", modelID, "expression", pred.Expression)
			report.Unjoined++
			continue
		}
		covered[goldRow.Expression] = true
		report.Predictions++

		if pred.Predicted == goldRow.Correct {
			report.Correct++
			continue
		}

		category := categorize(pred.Predicted, goldRow)
		switch category {
		case CategoryConcrete:
			report.Concrete++
		case CategoryAbstract:
			report.Abstract++
		case CategoryRandom:
			report.Random++
		case CategoryUnknown:
			report.Unknown++
			c.logger.Error("prediction matches no gold role",
				"model", modelID,
				"expression", pred.Expression,
				"predicted", pred.Predicted,
			)
		}

		rows = append(rows, &store.Discrepancy{
			ModelID:       modelID,
			Expression:    goldRow.Expression,
			Predicted:     pred.Predicted,
			Correct:       goldRow.Correct,
			Category:      category,
			PredictedText: goldRow.Option(pred.Predicted),
			CorrectText:   goldRow.Option(goldRow.Correct),
			CreatedAt:     pred.CreatedAt,
		})
	}
	report.Discrepancies = len(rows)
	report.Uncovered = c.dataset.Len() - len(covered)

	if err := c.store.ReplaceDiscrepancies(ctx, modelID, rows); err != nil {
		return nil, fmt.Errorf("discrepancy: replace rows for %q: %w", modelID, err)
	}

	c.logger.Info("classification complete",
		"model", modelID,
		"predictions", report.Predictions,
		"correct", report.Correct,
		"discrepancies", report.Discrepancies,
		"unknown", report.Unknown,
		"unjoined", report.Unjoined,
		"uncovered", report.Uncovered,
	)
	return report, nil
}

// categorize names the distractor a wrong prediction picked. The roles of a
// valid gold row cover every option index, so unknown is unreachable unless
// the stored prediction or the row is corrupt.
func categorize(predicted int, row gold.Row) string {
	switch predicted {
	case row.Concrete:
		return CategoryConcrete
	case row.Abstract:
		return CategoryAbstract
	case row.Random:
		return CategoryRandom
	}
	return CategoryUnknown
}
