package predict

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/llm"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

// Store is the slice of the persistence layer the runner needs.
type Store interface {
	ProcessedExpressions(ctx context.Context, modelID string) (map[string]bool, error)
	SavePrediction(ctx context.Context, p *store.Prediction) (bool, error)
}

// Runner walks the gold dataset for one model, resolving and persisting
// every expression the store does not already hold. Each expression commits
// on its own, so a run can stop at any point and the next run continues
// where it left off.
type Runner struct {
	modelID   string
	dataset   *gold.Dataset
	predictor Predictor
	store     Store
	logger    log.Logger
}

func NewRunner(modelID string, dataset *gold.Dataset, predictor Predictor, st Store, logger log.Logger) (*Runner, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("predict: missing model id")
	}
	if dataset == nil {
		return nil, errors.New("predict: nil dataset")
	}
	if predictor == nil {
		return nil, errors.New("predict: nil predictor")
	}
	if st == nil {
		return nil, errors.New("predict: nil store")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Runner{modelID: modelID, dataset: dataset, predictor: predictor, store: st, logger: logger}, nil
}

// RunReport summarizes one batch.
type RunReport struct {
	ModelID   string
	Total     int // expressions in the dataset
	Processed int // expressions resolved this run
	Written   int // rows newly inserted this run
	Skipped   int // failures left for the next run
	Remaining int // unprocessed expressions after this run
}

// Run resolves up to batchLimit unprocessed expressions in canonical dataset
// order; 0 means all of them. Per-expression failures are logged and
// skipped. When the dataset is already fully processed the run makes no
// external calls and no writes.
func (r *Runner) Run(ctx context.Context, batchLimit int) (*RunReport, error) {
	if r == nil {
		return nil, errors.New("predict: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("predict: nil context")
	}
	if batchLimit < 0 {
		return nil, fmt.Errorf("predict: negative batch limit %d", batchLimit)
	}

	processed, err := r.store.ProcessedExpressions(ctx, r.modelID)
	if err != nil {
		return nil, fmt.Errorf("predict: load processed expressions: %w", err)
	}

	rows := r.dataset.Rows()
	pending := make([]gold.Row, 0, len(rows))
	for _, row := range rows {
		if !processed[row.Expression] {
			pending = append(pending, row)
		}
	}

	report := &RunReport{
		ModelID:   r.modelID,
		Total:     len(rows),
		Remaining: len(pending),
	}
	if len(pending) == 0 {
		r.logger.Info("nothing to process", "model", r.modelID, "total", report.Total)
		return report, nil
	}

	batch := pending
	if batchLimit > 0 && len(batch) > batchLimit {
		batch = batch[:batchLimit]
	}
	r.logger.Info("starting batch",
		"model", r.modelID,
		"protocol", r.predictor.Protocol(),
		"batch", len(batch),
		"remaining", len(pending),
	)

	for _, row := range batch {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := r.predictor.Predict(ctx, row)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			r.logSkip(row.Expression, err)
			report.Skipped++
			continue
		}

		wrote, err := r.store.SavePrediction(ctx, &store.Prediction{
			ModelID:        r.modelID,
			Expression:     row.Expression,
			Predicted:      res.Index,
			Protocol:       r.predictor.Protocol(),
			RawAnswer:      res.RawAnswer,
			Votes:          res.Votes,
			YesCount:       res.YesCount,
			AmbiguousZero:  res.AmbiguousZero,
			AmbiguousMulti: res.AmbiguousMulti,
		})
		if err != nil {
			return report, fmt.Errorf("predict: save %q: %w", row.Expression, err)
		}
		if wrote {
			report.Written++
		} else {
			r.logger.Debug("row already stored", "model", r.modelID, "expression", row.Expression)
		}
		report.Processed++
		report.Remaining--
	}

	r.logger.Info("batch complete",
		"model", r.modelID,
		"processed", report.Processed,
		"written", report.Written,
		"skipped", report.Skipped,
		"remaining", report.Remaining,
	)
	return report, nil
}

func (r *Runner) logSkip(expression string, err error) {
	var serviceErr *llm.ServiceError
	var outputErr *InvalidOutputError
	switch {
	case errors.As(err, &serviceErr):
		r.logger.Warn("service failure; skipping expression",
			"model", r.modelID, "expression", expression, "error", err)
	case errors.As(err, &outputErr):
		r.logger.Warn("invalid output; skipping expression",
			"model", r.modelID, "expression", expression, "error", err)
	default:
		r.logger.Warn("prediction failed; skipping expression",
			"model", r.modelID, "expression", expression, "error", err)
	}
}
