package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

type fakeStore struct {
	ListModelsFunc        func(ctx context.Context) ([]string, error)
	ListPredictionsFunc   func(ctx context.Context, modelID string) ([]*store.Prediction, error)
	ListDiscrepanciesFunc func(ctx context.Context, modelID string) ([]*store.Discrepancy, error)
}

func (s *fakeStore) ListModels(ctx context.Context) ([]string, error) {
	if s.ListModelsFunc != nil {
		return s.ListModelsFunc(ctx)
	}
	return nil, nil
}

func (s *fakeStore) ListPredictions(ctx context.Context, modelID string) ([]*store.Prediction, error) {
	if s.ListPredictionsFunc != nil {
		return s.ListPredictionsFunc(ctx, modelID)
	}
	return nil, nil
}

func (s *fakeStore) ListDiscrepancies(ctx context.Context, modelID string) ([]*store.Discrepancy, error) {
	if s.ListDiscrepanciesFunc != nil {
		return s.ListDiscrepanciesFunc(ctx, modelID)
	}
	return nil, nil
}

// newTestServer builds a server with auth explicitly disabled.
func newTestServer(t *testing.T, st Store) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("IDIOM_EVAL_API_KEY", "")
	t.Setenv("IDIOM_EVAL_DISABLE_AUTH", "true")

	s, err := NewServer(st, log.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func newSeededStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func doRequest(s *Server, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}
