package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertPredictionStmt     *sql.Stmt
	predictionsByModelStmt   *sql.Stmt
	processedByModelStmt     *sql.Stmt
	modelsStmt               *sql.Stmt
	insertDiscrepancyStmt    *sql.Stmt
	deleteDiscrepanciesStmt  *sql.Stmt
	discrepanciesByModelStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each pool connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS predictions (
			model_id TEXT NOT NULL,
			expression TEXT NOT NULL,
			predicted INTEGER NOT NULL,
			protocol TEXT NOT NULL,
			raw_answer TEXT NOT NULL,
			votes TEXT NOT NULL DEFAULT '',
			yes_count INTEGER NOT NULL DEFAULT 0,
			ambiguous_zero INTEGER NOT NULL DEFAULT 0,
			ambiguous_multi INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (model_id, expression)
		)`,
		`CREATE TABLE IF NOT EXISTS discrepancies (
			model_id TEXT NOT NULL,
			expression TEXT NOT NULL,
			predicted INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			category TEXT NOT NULL,
			predicted_text TEXT NOT NULL,
			correct_text TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (model_id, expression)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_model ON predictions(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_discrepancies_model ON discrepancies(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_discrepancies_category ON discrepancies(model_id, category)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertPredictionStmt,
			query: `
				INSERT OR IGNORE INTO predictions (
					model_id, expression, predicted, protocol, raw_answer, votes,
					yes_count, ambiguous_zero, ambiguous_multi, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert prediction: %w",
		},
		{
			dst: &s.predictionsByModelStmt,
			query: `
				SELECT model_id, expression, predicted, protocol, raw_answer, votes,
					yes_count, ambiguous_zero, ambiguous_multi, created_at
				FROM predictions
				WHERE model_id = ?
				ORDER BY created_at ASC, expression ASC
			`,
			errFmt: "store: prepare predictions by model: %w",
		},
		{
			dst:    &s.processedByModelStmt,
			query:  `SELECT expression FROM predictions WHERE model_id = ?`,
			errFmt: "store: prepare processed expressions: %w",
		},
		{
			dst:    &s.modelsStmt,
			query:  `SELECT DISTINCT model_id FROM predictions ORDER BY model_id ASC`,
			errFmt: "store: prepare list models: %w",
		},
		{
			dst: &s.insertDiscrepancyStmt,
			query: `
				INSERT INTO discrepancies (
					model_id, expression, predicted, correct, category,
					predicted_text, correct_text, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert discrepancy: %w",
		},
		{
			dst:    &s.deleteDiscrepanciesStmt,
			query:  `DELETE FROM discrepancies WHERE model_id = ?`,
			errFmt: "store: prepare delete discrepancies: %w",
		},
		{
			dst: &s.discrepanciesByModelStmt,
			query: `
				SELECT model_id, expression, predicted, correct, category,
					predicted_text, correct_text, created_at
				FROM discrepancies
				WHERE model_id = ?
				ORDER BY created_at ASC, expression ASC
			`,
			errFmt: "store: prepare discrepancies by model: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertPredictionStmt,
		s.predictionsByModelStmt,
		s.processedByModelStmt,
		s.modelsStmt,
		s.insertDiscrepancyStmt,
		s.deleteDiscrepanciesStmt,
		s.discrepanciesByModelStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePrediction writes a prediction row unless one already exists for the
// same (model, expression). The insert is a single statement, so every saved
// row is durable on return; re-running a batch never duplicates.
func (s *SQLiteStore) SavePrediction(ctx context.Context, p *Prediction) (bool, error) {
	if s == nil {
		return false, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return false, errors.New("store: nil context")
	}
	if p == nil {
		return false, errors.New("store: nil prediction")
	}

	modelID := strings.TrimSpace(p.ModelID)
	expression := strings.TrimSpace(p.Expression)
	if modelID == "" {
		return false, errors.New("store: empty model id")
	}
	if expression == "" {
		return false, errors.New("store: empty expression")
	}
	if p.Predicted < 0 || p.Predicted > 3 {
		return false, fmt.Errorf("store: predicted index %d out of range", p.Predicted)
	}
	if strings.TrimSpace(p.Protocol) == "" {
		return false, errors.New("store: empty protocol")
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.insertPredictionStmt.ExecContext(
		ctx,
		modelID,
		expression,
		p.Predicted,
		p.Protocol,
		p.RawAnswer,
		p.Votes,
		p.YesCount,
		boolToInt(p.AmbiguousZero),
		boolToInt(p.AmbiguousMulti),
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("store: insert prediction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert prediction rows affected: %w", err)
	}
	return n > 0, nil
}

// ListPredictions returns a model's predictions in insertion order.
func (s *SQLiteStore) ListPredictions(ctx context.Context, modelID string) ([]*Prediction, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("store: empty model id")
	}

	rows, err := s.predictionsByModelStmt.QueryContext(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("store: list predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictionRows(rows)
}

// ProcessedExpressions returns the expressions already predicted for a model.
func (s *SQLiteStore) ProcessedExpressions(ctx context.Context, modelID string) (map[string]bool, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("store: empty model id")
	}

	rows, err := s.processedByModelStmt.QueryContext(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("store: processed expressions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var expression string
		if err := rows.Scan(&expression); err != nil {
			return nil, fmt.Errorf("store: scan processed expression: %w", err)
		}
		out[expression] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: processed expressions: %w", err)
	}
	return out, nil
}

// ListModels returns model ids with stored predictions, sorted.
func (s *SQLiteStore) ListModels(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	rows, err := s.modelsStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list models: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var modelID string
		if err := rows.Scan(&modelID); err != nil {
			return nil, fmt.Errorf("store: scan model id: %w", err)
		}
		out = append(out, modelID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list models: %w", err)
	}
	return out, nil
}

// ReplaceDiscrepancies swaps a model's discrepancy rows in one transaction,
// so readers never observe a half-classified model.
func (s *SQLiteStore) ReplaceDiscrepancies(ctx context.Context, modelID string, discs []*Discrepancy) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return errors.New("store: empty model id")
	}
	for i, d := range discs {
		if d == nil {
			return fmt.Errorf("store: nil discrepancy at %d", i)
		}
		if strings.TrimSpace(d.Expression) == "" {
			return fmt.Errorf("store: discrepancy %d: empty expression", i)
		}
		if strings.TrimSpace(d.Category) == "" {
			return fmt.Errorf("store: discrepancy %d (%s): empty category", i, d.Expression)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin discrepancy tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteStmt := tx.StmtContext(ctx, s.deleteDiscrepanciesStmt)
	defer deleteStmt.Close()
	if _, err := deleteStmt.ExecContext(ctx, modelID); err != nil {
		return fmt.Errorf("store: delete discrepancies: %w", err)
	}

	insertStmt := tx.StmtContext(ctx, s.insertDiscrepancyStmt)
	defer insertStmt.Close()

	now := time.Now().UTC()
	for i, d := range discs {
		createdAt := d.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := insertStmt.ExecContext(
			ctx,
			modelID,
			strings.TrimSpace(d.Expression),
			d.Predicted,
			d.Correct,
			d.Category,
			d.PredictedText,
			d.CorrectText,
			createdAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("store: insert discrepancy %d (%s): %w", i, d.Expression, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit discrepancies: %w", err)
	}
	return nil
}

// ListDiscrepancies returns a model's discrepancy rows in insertion order.
func (s *SQLiteStore) ListDiscrepancies(ctx context.Context, modelID string) ([]*Discrepancy, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("store: empty model id")
	}

	rows, err := s.discrepanciesByModelStmt.QueryContext(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("store: list discrepancies: %w", err)
	}
	defer rows.Close()

	var out []*Discrepancy
	for rows.Next() {
		var (
			d           Discrepancy
			createdAtMS int64
		)
		if err := rows.Scan(
			&d.ModelID,
			&d.Expression,
			&d.Predicted,
			&d.Correct,
			&d.Category,
			&d.PredictedText,
			&d.CorrectText,
			&createdAtMS,
		); err != nil {
			return nil, fmt.Errorf("store: scan discrepancy: %w", err)
		}
		d.CreatedAt = time.UnixMilli(createdAtMS).UTC()
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list discrepancies: %w", err)
	}
	return out, nil
}

func scanPredictionRows(rows *sql.Rows) ([]*Prediction, error) {
	var out []*Prediction
	for rows.Next() {
		var (
			p              Prediction
			ambiguousZero  int
			ambiguousMulti int
			createdAtMS    int64
		)
		if err := rows.Scan(
			&p.ModelID,
			&p.Expression,
			&p.Predicted,
			&p.Protocol,
			&p.RawAnswer,
			&p.Votes,
			&p.YesCount,
			&ambiguousZero,
			&ambiguousMulti,
			&createdAtMS,
		); err != nil {
			return nil, fmt.Errorf("store: scan prediction: %w", err)
		}
		p.AmbiguousZero = ambiguousZero != 0
		p.AmbiguousMulti = ambiguousMulti != 0
		p.CreatedAt = time.UnixMilli(createdAtMS).UTC()
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan prediction rows: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
