// Package gold holds the benchmark's gold dataset: each Danish idiom with its
// four candidate definitions and the semantic role of every option.
package gold

import (
	"fmt"
	"strings"
)

// NumOptions is the number of candidate definitions per expression.
const NumOptions = 4

// Row is one expression with its options in canonical A-D order and the
// role indices. Correct, Concrete, Abstract and Random are each in 0..3 and
// together form a permutation of {0,1,2,3}.
type Row struct {
	Expression string
	Options    [NumOptions]string
	Correct    int
	Concrete   int
	Abstract   int
	Random     int
}

// Option returns the definition text at idx, or "" when out of range.
func (r Row) Option(idx int) string {
	if idx < 0 || idx >= NumOptions {
		return ""
	}
	return r.Options[idx]
}

// Dataset is the immutable in-memory view of the gold data. Rows keep the
// order of the options file, which is the canonical processing order.
type Dataset struct {
	rows  []Row
	index map[string]int
}

// NewDataset builds a dataset from rows already in canonical order,
// enforcing the same contract as Load: unique non-empty expressions and
// role indices forming a permutation of the option set.
func NewDataset(rows []Row) (*Dataset, error) {
	var problems []string
	index := make(map[string]int, len(rows))
	kept := make([]Row, 0, len(rows))
	for i, r := range rows {
		expr := strings.TrimSpace(r.Expression)
		if expr == "" {
			problems = append(problems, fmt.Sprintf("row %d: empty expression", i))
			continue
		}
		if _, dup := index[expr]; dup {
			problems = append(problems, fmt.Sprintf("row %d: duplicate expression %q", i, expr))
			continue
		}

		var seen [NumOptions]bool
		ok := true
		for _, idx := range []int{r.Correct, r.Concrete, r.Abstract, r.Random} {
			if idx < 0 || idx >= NumOptions {
				problems = append(problems, fmt.Sprintf("row %d (%s): role index %d out of range", i, expr, idx))
				ok = false
				continue
			}
			if seen[idx] {
				problems = append(problems, fmt.Sprintf("row %d (%s): roles are not a permutation of the options (letter %s repeats)", i, expr, Letter(idx)))
				ok = false
			}
			seen[idx] = true
		}
		if !ok {
			continue
		}

		r.Expression = expr
		index[expr] = len(kept)
		kept = append(kept, r)
	}
	if len(problems) > 0 {
		return nil, &IntegrityError{Problems: problems}
	}
	return &Dataset{rows: kept, index: index}, nil
}

// Len reports the number of expressions.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Rows returns the rows in canonical order. Callers must not mutate them.
func (d *Dataset) Rows() []Row {
	if d == nil {
		return nil
	}
	return d.rows
}

// Lookup finds the row for an expression.
func (d *Dataset) Lookup(expression string) (Row, bool) {
	if d == nil || d.index == nil {
		return Row{}, false
	}
	i, ok := d.index[strings.TrimSpace(expression)]
	if !ok {
		return Row{}, false
	}
	return d.rows[i], true
}

// IntegrityError reports violations of the dataset contract: duplicate or
// unjoinable expressions, invalid option letters, or role indices that do
// not form a permutation of the option set.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "gold: integrity error"
	}
	if len(e.Problems) == 1 {
		return "gold: " + e.Problems[0]
	}
	return fmt.Sprintf("gold: %s (and %d more problems)", e.Problems[0], len(e.Problems)-1)
}

// Letter names option idx as "A".."D", or "?" when out of range.
func Letter(idx int) string {
	if idx < 0 || idx >= NumOptions {
		return "?"
	}
	return string(rune('A' + idx))
}

// ParseLetter maps an option letter (case-insensitive, surrounding space
// ignored) to its index.
func ParseLetter(s string) (int, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if len(t) != 1 || t[0] < 'A' || t[0] > 'A'+NumOptions-1 {
		return 0, fmt.Errorf("gold: invalid option letter %q", s)
	}
	return int(t[0] - 'A'), nil
}
