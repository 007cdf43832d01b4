package predict

import (
	"strings"
	"testing"

	"github.com/stellarlinkco/idiom-eval/internal/gold"
)

func TestAggregate_Coerce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		votes     [gold.NumOptions]bool
		wantIndex int
		wantYes   int
		wantZero  bool
		wantMulti bool
	}{
		{name: "single yes A", votes: [4]bool{true, false, false, false}, wantIndex: 0, wantYes: 1},
		{name: "single yes D", votes: [4]bool{false, false, false, true}, wantIndex: 3, wantYes: 1},
		{name: "no yes", votes: [4]bool{false, false, false, false}, wantIndex: 0, wantYes: 0, wantZero: true},
		{name: "two yes keeps first", votes: [4]bool{false, true, true, false}, wantIndex: 1, wantYes: 2, wantMulti: true},
		{name: "all yes keeps first", votes: [4]bool{true, true, true, true}, wantIndex: 0, wantYes: 4, wantMulti: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			agg, err := Aggregate(tt.votes, PolicyCoerce)
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if agg.Index != tt.wantIndex || agg.YesCount != tt.wantYes {
				t.Fatalf("Aggregate: got index %d yes %d, want %d/%d", agg.Index, agg.YesCount, tt.wantIndex, tt.wantYes)
			}
			if agg.AmbiguousZero != tt.wantZero || agg.AmbiguousMulti != tt.wantMulti {
				t.Fatalf("Aggregate flags: got zero=%v multi=%v, want zero=%v multi=%v",
					agg.AmbiguousZero, agg.AmbiguousMulti, tt.wantZero, tt.wantMulti)
			}
		})
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	t.Parallel()

	votes := [gold.NumOptions]bool{false, true, true, false}
	first, err := Aggregate(votes, PolicyCoerce)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Aggregate(votes, PolicyCoerce)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		if again != first {
			t.Fatalf("Aggregate is not stable: %#v vs %#v", again, first)
		}
	}
}

func TestAggregate_Strict(t *testing.T) {
	t.Parallel()

	agg, err := Aggregate([gold.NumOptions]bool{false, false, true, false}, PolicyStrict)
	if err != nil {
		t.Fatalf("Aggregate(strict, one yes): %v", err)
	}
	if agg.Index != 2 {
		t.Fatalf("Aggregate(strict): got index %d want 2", agg.Index)
	}

	if _, err := Aggregate([gold.NumOptions]bool{}, PolicyStrict); err == nil {
		t.Fatal("Aggregate(strict, no yes): expected error")
	}
	_, err = Aggregate([gold.NumOptions]bool{true, false, true, false}, PolicyStrict)
	if err == nil || !strings.Contains(err.Error(), "2 affirmative") {
		t.Fatalf("Aggregate(strict, two yes): got %v", err)
	}
}

func TestAggregate_UnknownPolicy(t *testing.T) {
	t.Parallel()

	if _, err := Aggregate([gold.NumOptions]bool{true}, Policy("majority")); err == nil {
		t.Fatal("Aggregate(unknown policy): expected error")
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "coerce", " Coerce "} {
		p, err := ParsePolicy(s)
		if err != nil || p != PolicyCoerce {
			t.Fatalf("ParsePolicy(%q): got %q, %v", s, p, err)
		}
	}
	p, err := ParsePolicy("STRICT")
	if err != nil || p != PolicyStrict {
		t.Fatalf("ParsePolicy(STRICT): got %q, %v", p, err)
	}
	if _, err := ParsePolicy("majority"); err == nil {
		t.Fatal("ParsePolicy(majority): expected error")
	}
}

func TestFormatVotes(t *testing.T) {
	t.Parallel()

	if got := FormatVotes([gold.NumOptions]bool{true, false, false, true}); got != "1001" {
		t.Fatalf("FormatVotes: got %q want %q", got, "1001")
	}
	if got := FormatVotes([gold.NumOptions]bool{}); got != "0000" {
		t.Fatalf("FormatVotes: got %q want %q", got, "0000")
	}
}
