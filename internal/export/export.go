// Package export writes the stored benchmark results out as CSV reports:
// per-model prediction and discrepancy files, a cross-model discrepancy dump
// and the overview table. The files are derived data and safe to regenerate
// at any time.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stellarlinkco/idiom-eval/internal/discrepancy"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/metrics"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

// Store is the read surface the exporter needs.
type Store interface {
	ListModels(ctx context.Context) ([]string, error)
	ListPredictions(ctx context.Context, modelID string) ([]*store.Prediction, error)
	ListDiscrepancies(ctx context.Context, modelID string) ([]*store.Discrepancy, error)
}

// Exporter renders the store into CSV files.
type Exporter struct {
	store      Store
	aggregator *metrics.Aggregator
	logger     log.Logger
}

func NewExporter(st Store, logger log.Logger) (*Exporter, error) {
	if st == nil {
		return nil, errors.New("export: nil store")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	aggregator, err := metrics.NewAggregator(st, logger)
	if err != nil {
		return nil, err
	}
	return &Exporter{store: st, aggregator: aggregator, logger: logger}, nil
}

// Summary lists what an export produced.
type Summary struct {
	Dir    string
	Files  []string // file names relative to Dir, in write order
	Models int
}

// Export writes every report into dir, creating it if needed. Existing files
// are overwritten; the export is a pure function of the store.
func (e *Exporter) Export(ctx context.Context, dir string) (*Summary, error) {
	if e == nil {
		return nil, errors.New("export: nil exporter")
	}
	if ctx == nil {
		return nil, errors.New("export: nil context")
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("export: missing output dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}

	models, err := e.store.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: list models: %w", err)
	}

	summary := &Summary{Dir: dir, Models: len(models)}
	var allDiscrepancies []*store.Discrepancy

	for _, modelID := range models {
		preds, err := e.store.ListPredictions(ctx, modelID)
		if err != nil {
			return nil, fmt.Errorf("export: load predictions for %q: %w", modelID, err)
		}
		name := fmt.Sprintf("predictions_%s.csv", fileSafe(modelID))
		if err := writeCSV(filepath.Join(dir, name), predictionRecords(preds)); err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, name)

		discs, err := e.store.ListDiscrepancies(ctx, modelID)
		if err != nil {
			return nil, fmt.Errorf("export: load discrepancies for %q: %w", modelID, err)
		}
		name = fmt.Sprintf("discrepancies_%s.csv", fileSafe(modelID))
		if err := writeCSV(filepath.Join(dir, name), discrepancyRecords(discs, false)); err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, name)
		allDiscrepancies = append(allDiscrepancies, discs...)
	}

	if err := writeCSV(filepath.Join(dir, "discrepancies_all.csv"), discrepancyRecords(allDiscrepancies, true)); err != nil {
		return nil, err
	}
	summary.Files = append(summary.Files, "discrepancies_all.csv")

	overview, err := e.aggregator.Overview(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeCSV(filepath.Join(dir, "overview.csv"), OverviewRecords(overview)); err != nil {
		return nil, err
	}
	summary.Files = append(summary.Files, "overview.csv")

	e.logger.Info("export complete", "dir", dir, "models", summary.Models, "files", len(summary.Files))
	return summary, nil
}

func predictionRecords(preds []*store.Prediction) [][]string {
	out := make([][]string, 0, len(preds)+1)
	out = append(out, []string{
		"expression", "predicted", "protocol", "raw_answer",
		"votes", "yes_count", "ambiguous_zero", "ambiguous_multi", "created_at",
	})
	for _, p := range preds {
		out = append(out, []string{
			p.Expression,
			gold.Letter(p.Predicted),
			p.Protocol,
			p.RawAnswer,
			p.Votes,
			strconv.Itoa(p.YesCount),
			strconv.FormatBool(p.AmbiguousZero),
			strconv.FormatBool(p.AmbiguousMulti),
			p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func discrepancyRecords(discs []*store.Discrepancy, withModel bool) [][]string {
	header := []string{"expression", "predicted", "correct", "category", "predicted_text", "correct_text"}
	if withModel {
		header = append([]string{"model"}, header...)
	}
	out := make([][]string, 0, len(discs)+1)
	out = append(out, header)
	for _, d := range discs {
		record := []string{
			d.Expression,
			gold.Letter(d.Predicted),
			gold.Letter(d.Correct),
			d.Category,
			d.PredictedText,
			d.CorrectText,
		}
		if withModel {
			record = append([]string{d.ModelID}, record...)
		}
		out = append(out, record)
	}
	return out
}

// OverviewRecords renders the overview rows as CSV records, header first.
// The CLI reuses it for overview --csv so file and terminal output agree.
func OverviewRecords(overview []*metrics.ModelOverview) [][]string {
	out := make([][]string, 0, len(overview)+1)
	out = append(out, []string{
		"model", "predictions", "discrepancies", "accuracy",
		"concrete", "abstract", "random", "unknown",
		"concrete_pct", "abstract_pct", "random_pct", "unknown_pct",
		"ambiguous_zero", "ambiguous_multi", "ambiguous_zero_pct", "ambiguous_multi_pct",
	})
	for _, o := range overview {
		out = append(out, []string{
			o.ModelID,
			strconv.Itoa(o.Predictions),
			strconv.Itoa(o.Discrepancies),
			o.AccuracyLabel(),
			strconv.Itoa(o.Concrete),
			strconv.Itoa(o.Abstract),
			strconv.Itoa(o.Random),
			strconv.Itoa(o.Unknown),
			formatPct(o.CategoryPercent(discrepancy.CategoryConcrete)),
			formatPct(o.CategoryPercent(discrepancy.CategoryAbstract)),
			formatPct(o.CategoryPercent(discrepancy.CategoryRandom)),
			formatPct(o.CategoryPercent(discrepancy.CategoryUnknown)),
			strconv.Itoa(o.AmbiguousZero),
			strconv.Itoa(o.AmbiguousMulti),
			formatPct(o.AmbiguousZeroRate()),
			formatPct(o.AmbiguousMultiRate()),
		})
	}
	return out
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", filepath.Base(path), err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("export: write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", filepath.Base(path), err)
	}
	return nil
}

// fileSafe keeps model ids usable as file name stems.
func fileSafe(modelID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return '-'
	}, modelID)
}
