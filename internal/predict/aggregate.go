package predict

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/gold"
)

// Policy decides what an ambiguous verification outcome becomes.
type Policy string

const (
	// PolicyCoerce maps ambiguity to a deterministic choice: zero
	// affirmatives pick option A, several pick the first affirmative in
	// canonical order. Both cases are flagged on the record.
	PolicyCoerce Policy = "coerce"
	// PolicyStrict treats ambiguity as an invalid output: nothing is
	// recorded and the expression is retried on the next run.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps a config string to a Policy, defaulting to coerce.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyCoerce):
		return PolicyCoerce, nil
	case string(PolicyStrict):
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("predict: unknown aggregation policy %q", s)
	}
}

// Aggregation is the resolved outcome of four verification votes.
type Aggregation struct {
	Index          int
	YesCount       int
	AmbiguousZero  bool
	AmbiguousMulti bool
}

// Aggregate turns per-option votes in canonical A-D order into one chosen
// index. Deterministic and order-stable: identical votes always produce the
// identical outcome. Under PolicyStrict an ambiguous outcome is an error;
// the verifier surfaces it as *InvalidOutputError.
func Aggregate(votes [gold.NumOptions]bool, policy Policy) (Aggregation, error) {
	switch policy {
	case "", PolicyCoerce, PolicyStrict:
	default:
		return Aggregation{}, fmt.Errorf("predict: unknown aggregation policy %q", policy)
	}

	agg := Aggregation{Index: 0}
	first := -1
	for i, v := range votes {
		if !v {
			continue
		}
		agg.YesCount++
		if first < 0 {
			first = i
		}
	}

	switch agg.YesCount {
	case 1:
		agg.Index = first
	case 0:
		agg.AmbiguousZero = true
	default:
		agg.Index = first
		agg.AmbiguousMulti = true
	}

	if policy == PolicyStrict && (agg.AmbiguousZero || agg.AmbiguousMulti) {
		return Aggregation{}, fmt.Errorf("predict: %d affirmative options under strict policy", agg.YesCount)
	}
	return agg, nil
}

// FormatVotes renders votes as one '0' or '1' per option in canonical order.
func FormatVotes(votes [gold.NumOptions]bool) string {
	b := make([]byte, len(votes))
	for i, v := range votes {
		if v {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}
