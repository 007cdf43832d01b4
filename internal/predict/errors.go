package predict

import (
	"fmt"
	"strings"
)

// InvalidOutputError reports a completed call whose reply could not be
// mapped to an option: no letter, several letters, or an ambiguous
// verification outcome under the strict policy. The expression is not
// recorded and stays eligible for the next run.
type InvalidOutputError struct {
	Model      string
	Expression string
	Output     string
	Err        error
}

func (e *InvalidOutputError) Error() string {
	if e == nil {
		return "predict: invalid output"
	}
	model := strings.TrimSpace(e.Model)
	if model == "" {
		model = "unknown"
	}
	if e.Err != nil {
		return fmt.Sprintf("predict: %s: %q: invalid output %q: %v", model, e.Expression, e.Output, e.Err)
	}
	return fmt.Sprintf("predict: %s: %q: invalid output %q", model, e.Expression, e.Output)
}

func (e *InvalidOutputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
