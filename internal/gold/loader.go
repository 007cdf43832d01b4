package gold

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Expected header columns of the two tab-separated input files.
var (
	optionColumns = []string{"expression", "option_a", "option_b", "option_c", "option_d"}
	labelColumns  = []string{"expression", "correct", "concrete", "abstract", "random"}
)

// Load reads the options and labels files, joins them on expression text and
// enforces the dataset contract. Any integrity problem fails the load with an
// *IntegrityError.
func Load(optionsPath, labelsPath string) (*Dataset, error) {
	res, err := loadFiles(optionsPath, labelsPath)
	if err != nil {
		return nil, err
	}
	if len(res.problems) > 0 {
		return nil, &IntegrityError{Problems: res.problems}
	}

	index := make(map[string]int, len(res.rows))
	for i, r := range res.rows {
		index[r.Expression] = i
	}
	return &Dataset{rows: res.rows, index: index}, nil
}

// Audit is the result of checking the dataset files without stopping at the
// first violation.
type Audit struct {
	OptionRows int
	LabelRows  int
	Problems   []string
}

// OK reports whether the audit found no problems.
func (a *Audit) OK() bool {
	return a != nil && len(a.Problems) == 0
}

// AuditFiles checks both dataset files and collects every contract violation.
// Only I/O or file-format failures return an error.
func AuditFiles(optionsPath, labelsPath string) (*Audit, error) {
	res, err := loadFiles(optionsPath, labelsPath)
	if err != nil {
		return nil, err
	}
	return &Audit{
		OptionRows: res.optionRows,
		LabelRows:  res.labelRows,
		Problems:   res.problems,
	}, nil
}

type loadResult struct {
	rows       []Row
	optionRows int
	labelRows  int
	problems   []string
}

type labelEntry struct {
	line    int
	indices [4]int // correct, concrete, abstract, random
	valid   bool
}

func loadFiles(optionsPath, labelsPath string) (*loadResult, error) {
	optRecs, err := readTable(optionsPath, optionColumns)
	if err != nil {
		return nil, err
	}
	labRecs, err := readTable(labelsPath, labelColumns)
	if err != nil {
		return nil, err
	}

	res := &loadResult{
		optionRows: len(optRecs),
		labelRows:  len(labRecs),
	}
	problem := func(path string, line int, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.problems = append(res.problems, fmt.Sprintf("%s: line %d: %s", path, line, msg))
	}

	labels := make(map[string]labelEntry, len(labRecs))
	labelOrder := make([]string, 0, len(labRecs))
	for i, rec := range labRecs {
		line := i + 2 // 1-based, after the header
		expr := rec[0]
		if expr == "" {
			problem(labelsPath, line, "empty expression")
			continue
		}
		if _, dup := labels[expr]; dup {
			problem(labelsPath, line, "duplicate expression %q", expr)
			continue
		}

		entry := labelEntry{line: line, valid: true}
		var seen [NumOptions]bool
		for j, role := range []string{"correct", "concrete", "abstract", "random"} {
			idx, err := ParseLetter(rec[j+1])
			if err != nil {
				problem(labelsPath, line, "%s: invalid option letter %q", role, rec[j+1])
				entry.valid = false
				continue
			}
			entry.indices[j] = idx
			if seen[idx] {
				problem(labelsPath, line, "roles are not a permutation of the options (letter %s repeats)", Letter(idx))
				entry.valid = false
			}
			seen[idx] = true
		}

		labels[expr] = entry
		labelOrder = append(labelOrder, expr)
	}

	seenExpr := make(map[string]bool, len(optRecs))
	joined := make(map[string]bool, len(optRecs))
	for i, rec := range optRecs {
		line := i + 2
		expr := rec[0]
		if expr == "" {
			problem(optionsPath, line, "empty expression")
			continue
		}
		if seenExpr[expr] {
			problem(optionsPath, line, "duplicate expression %q", expr)
			continue
		}
		seenExpr[expr] = true

		row := Row{Expression: expr}
		complete := true
		for j := 0; j < NumOptions; j++ {
			if rec[j+1] == "" {
				problem(optionsPath, line, "empty option %s", Letter(j))
				complete = false
			}
			row.Options[j] = rec[j+1]
		}

		entry, ok := labels[expr]
		if !ok {
			problem(optionsPath, line, "no label row for expression %q", expr)
			continue
		}
		joined[expr] = true
		if !entry.valid || !complete {
			continue
		}

		row.Correct = entry.indices[0]
		row.Concrete = entry.indices[1]
		row.Abstract = entry.indices[2]
		row.Random = entry.indices[3]
		res.rows = append(res.rows, row)
	}

	for _, expr := range labelOrder {
		if !joined[expr] {
			problem(labelsPath, labels[expr].line, "no options row for expression %q", expr)
		}
	}

	return res, nil
}

// readTable reads a tab-separated file with a header row and returns the
// records with fields trimmed and reordered to match columns.
func readTable(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gold: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("gold: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("gold: %s: missing header row", path)
	}

	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}
	lookup := make([]int, len(columns))
	for i, name := range columns {
		idx, ok := colIndex[name]
		if !ok {
			return nil, fmt.Errorf("gold: %s: missing column %q", path, name)
		}
		lookup[i] = idx
	}

	out := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(columns))
		for i, idx := range lookup {
			if idx < len(rec) {
				row[i] = strings.TrimSpace(rec[idx])
			}
		}
		out = append(out, row)
	}
	return out, nil
}
