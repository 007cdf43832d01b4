package predict

import (
	"context"
	"testing"

	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/llm"
	"github.com/stellarlinkco/idiom-eval/internal/prompt"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

// fakeClient replies from a script, one entry per Complete call.
type fakeClient struct {
	replies []string
	errs    []error

	calls   int
	prompts []string
	lastReq *llm.Request
}

func (c *fakeClient) Name() string { return "fake" }

func (c *fakeClient) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	i := c.calls
	c.calls++
	if req != nil {
		c.prompts = append(c.prompts, req.Prompt)
		c.lastReq = req
	}
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	reply := ""
	if i < len(c.replies) {
		reply = c.replies[i]
	}
	return &llm.Response{Text: reply, StopReason: "stop"}, nil
}

func testModel(id, protocol string) config.ModelConfig {
	return config.ModelConfig{
		ID:        id,
		Provider:  "openai",
		Model:     "test-model",
		Protocol:  protocol,
		MaxTokens: 8,
	}
}

func testRow() gold.Row {
	return gold.Row{
		Expression: "at gå agurk",
		Options: [4]string{
			"at blive meget vred",
			"at skære en agurk i skiver",
			"at miste overblikket",
			"en bestemt slags grøntsag",
		},
		Correct: 0, Concrete: 1, Abstract: 2, Random: 3,
	}
}

func testPrompt(t *testing.T, name string) *prompt.Prompt {
	t.Helper()

	p, err := prompt.NewLibrary().Get(name)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	return p
}

// fakePredictor resolves expressions from fixed maps.
type fakePredictor struct {
	protocol string
	results  map[string]*Result
	errs     map[string]error

	calls int
}

func (p *fakePredictor) Protocol() string {
	if p.protocol == "" {
		return config.ProtocolDirect
	}
	return p.protocol
}

func (p *fakePredictor) Predict(_ context.Context, row gold.Row) (*Result, error) {
	p.calls++
	if err := p.errs[row.Expression]; err != nil {
		return nil, err
	}
	if r, ok := p.results[row.Expression]; ok {
		return r, nil
	}
	return &Result{Index: 0, RawAnswer: "A"}, nil
}

// fakeRunnerStore is an in-memory Store counting every call.
type fakeRunnerStore struct {
	processed map[string]bool
	saved     []*store.Prediction

	processedCalls int
	saveCalls      int
	processedErr   error
	saveErr        error
}

func (s *fakeRunnerStore) ProcessedExpressions(_ context.Context, _ string) (map[string]bool, error) {
	s.processedCalls++
	if s.processedErr != nil {
		return nil, s.processedErr
	}
	out := make(map[string]bool, len(s.processed))
	for k, v := range s.processed {
		out[k] = v
	}
	return out, nil
}

func (s *fakeRunnerStore) SavePrediction(_ context.Context, p *store.Prediction) (bool, error) {
	s.saveCalls++
	if s.saveErr != nil {
		return false, s.saveErr
	}
	if s.processed == nil {
		s.processed = make(map[string]bool)
	}
	if s.processed[p.Expression] {
		return false, nil
	}
	s.processed[p.Expression] = true
	s.saved = append(s.saved, p)
	return true, nil
}

func testDataset(t *testing.T, expressions ...string) *gold.Dataset {
	t.Helper()

	rows := make([]gold.Row, 0, len(expressions))
	for _, expr := range expressions {
		rows = append(rows, gold.Row{
			Expression: expr,
			Options:    [4]string{"rigtig", "konkret", "abstrakt", "tilfældig"},
			Correct:    0, Concrete: 1, Abstract: 2, Random: 3,
		})
	}
	ds, err := gold.NewDataset(rows)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}
