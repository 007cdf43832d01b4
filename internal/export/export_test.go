package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stellarlinkco/idiom-eval/internal/discrepancy"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestNewExporter_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewExporter(nil, log.NewNop()); err == nil {
		t.Fatal("NewExporter(nil store): expected error")
	}
	if _, err := NewExporter(newTestStore(t), nil); err != nil {
		t.Fatalf("NewExporter(nil logger): %v", err)
	}
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0).UTC()

	preds := []*store.Prediction{
		{
			ModelID: "gpt-4o", Expression: "at gå agurk", Predicted: 2,
			Protocol: "verify", RawAnswer: "nej | nej | ja | nej",
			Votes: "0010", YesCount: 1, CreatedAt: t0,
		},
		{
			ModelID: "gpt-4o", Expression: "at tabe sutten", Predicted: 0,
			Protocol: "verify", RawAnswer: "nej | nej | nej | nej",
			Votes: "0000", AmbiguousZero: true, CreatedAt: t0.Add(time.Second),
		},
		{
			ModelID: "claude-sonnet", Expression: "at gå agurk", Predicted: 0,
			Protocol: "direct", RawAnswer: "A", CreatedAt: t0,
		},
	}
	for _, p := range preds {
		if _, err := st.SavePrediction(ctx, p); err != nil {
			t.Fatalf("SavePrediction(%s): %v", p.Expression, err)
		}
	}
	discs := []*store.Discrepancy{{
		ModelID: "gpt-4o", Expression: "at gå agurk", Predicted: 2, Correct: 0,
		Category:      discrepancy.CategoryAbstract,
		PredictedText: "at miste overblikket", CorrectText: "at blive meget vred",
		CreatedAt: t0,
	}}
	if err := st.ReplaceDiscrepancies(ctx, "gpt-4o", discs); err != nil {
		t.Fatalf("ReplaceDiscrepancies: %v", err)
	}

	e, err := NewExporter(st, log.NewNop())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	dir := t.TempDir()
	summary, err := e.Export(ctx, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if summary.Dir != dir || summary.Models != 2 {
		t.Fatalf("summary: %#v", summary)
	}
	wantFiles := []string{
		"predictions_claude-sonnet.csv",
		"discrepancies_claude-sonnet.csv",
		"predictions_gpt-4o.csv",
		"discrepancies_gpt-4o.csv",
		"discrepancies_all.csv",
		"overview.csv",
	}
	if len(summary.Files) != len(wantFiles) {
		t.Fatalf("files: %v", summary.Files)
	}
	for i, want := range wantFiles {
		if summary.Files[i] != want {
			t.Fatalf("file %d: got %q want %q", i, summary.Files[i], want)
		}
	}

	records := readCSV(t, filepath.Join(dir, "predictions_gpt-4o.csv"))
	if len(records) != 3 {
		t.Fatalf("prediction records: %d", len(records))
	}
	if records[0][0] != "expression" || records[0][8] != "created_at" {
		t.Fatalf("prediction header: %v", records[0])
	}
	row := records[1]
	if row[0] != "at gå agurk" || row[1] != "C" || row[2] != "verify" || row[4] != "0010" {
		t.Fatalf("prediction row: %v", row)
	}
	if row[8] != t0.Format(time.RFC3339) {
		t.Fatalf("created_at: %q", row[8])
	}
	if records[2][6] != "true" {
		t.Fatalf("ambiguous_zero column: %v", records[2])
	}

	records = readCSV(t, filepath.Join(dir, "discrepancies_all.csv"))
	if len(records) != 2 {
		t.Fatalf("all-discrepancy records: %d", len(records))
	}
	if records[0][0] != "model" {
		t.Fatalf("all-discrepancy header: %v", records[0])
	}
	if records[1][0] != "gpt-4o" || records[1][2] != "C" || records[1][3] != "A" || records[1][4] != "abstract" {
		t.Fatalf("all-discrepancy row: %v", records[1])
	}

	records = readCSV(t, filepath.Join(dir, "overview.csv"))
	if len(records) != 3 {
		t.Fatalf("overview records: %d", len(records))
	}
	// claude-sonnet has no discrepancies and sorts first.
	if records[1][0] != "claude-sonnet" || records[2][0] != "gpt-4o" {
		t.Fatalf("overview order: %v / %v", records[1][0], records[2][0])
	}
	claude := records[1]
	if claude[1] != "1" || claude[2] != "0" || claude[3] != "100.00%" {
		t.Fatalf("claude row: %v", claude)
	}
	gpt := records[2]
	if gpt[1] != "2" || gpt[2] != "1" || gpt[3] != "50.00%" {
		t.Fatalf("gpt row: %v", gpt)
	}
	if gpt[9] != "100.00" || gpt[8] != "0.00" {
		t.Fatalf("gpt category pcts: %v", gpt)
	}
	if gpt[12] != "1" || gpt[14] != "50.00" {
		t.Fatalf("gpt ambiguous columns: %v", gpt)
	}
}

func TestExporter_Export_EmptyStore(t *testing.T) {
	t.Parallel()

	e, err := NewExporter(newTestStore(t), log.NewNop())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	dir := t.TempDir()
	summary, err := e.Export(context.Background(), dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if summary.Models != 0 || len(summary.Files) != 2 {
		t.Fatalf("summary: %#v", summary)
	}
	for _, name := range []string{"discrepancies_all.csv", "overview.csv"} {
		records := readCSV(t, filepath.Join(dir, name))
		if len(records) != 1 {
			t.Fatalf("%s: %d records, want header only", name, len(records))
		}
	}
}

func TestExporter_Export_Guards(t *testing.T) {
	t.Parallel()

	if _, err := (*Exporter)(nil).Export(context.Background(), t.TempDir()); err == nil {
		t.Fatal("Export(nil exporter): expected error")
	}

	e, err := NewExporter(newTestStore(t), log.NewNop())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	if _, err := e.Export(nil, t.TempDir()); err == nil {
		t.Fatal("Export(nil ctx): expected error")
	}
	if _, err := e.Export(context.Background(), "  "); err == nil {
		t.Fatal("Export(blank dir): expected error")
	}
}

func TestExporter_Export_DirIsFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	blocked := filepath.Join(base, "out")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e, err := NewExporter(newTestStore(t), log.NewNop())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	if _, err := e.Export(context.Background(), filepath.Join(blocked, "sub")); err == nil {
		t.Fatal("Export(dir under file): expected error")
	}
}

type failingStore struct {
	modelsErr error
	predsErr  error
	discsErr  error
}

func (s *failingStore) ListModels(_ context.Context) ([]string, error) {
	if s.modelsErr != nil {
		return nil, s.modelsErr
	}
	return []string{"m"}, nil
}

func (s *failingStore) ListPredictions(_ context.Context, _ string) ([]*store.Prediction, error) {
	if s.predsErr != nil {
		return nil, s.predsErr
	}
	return nil, nil
}

func (s *failingStore) ListDiscrepancies(_ context.Context, _ string) ([]*store.Discrepancy, error) {
	if s.discsErr != nil {
		return nil, s.discsErr
	}
	return nil, nil
}

func TestExporter_Export_StoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	for name, st := range map[string]*failingStore{
		"models":        {modelsErr: boom},
		"predictions":   {predsErr: boom},
		"discrepancies": {discsErr: boom},
	} {
		e, err := NewExporter(st, log.NewNop())
		if err != nil {
			t.Fatalf("NewExporter(%s): %v", name, err)
		}
		if _, err := e.Export(context.Background(), t.TempDir()); err == nil {
			t.Fatalf("Export(%s error): expected error", name)
		}
	}
}

func TestFileSafe(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"gpt-4o":          "gpt-4o",
		"claude_3.5":      "claude_3.5",
		"llama/70b":       "llama-70b",
		"model med æbler": "model-med--bler",
	}
	for in, want := range cases {
		if got := fileSafe(in); got != want {
			t.Fatalf("fileSafe(%q) = %q, want %q", in, got, want)
		}
	}
}
