package votes

import (
	"testing"

	"prompthub/internal/models"
)

func TestTransitionToggleSequence(t *testing.T) {
	// Fresh prompt, then: A up, A up again (retract), A down, B up.
	up, down := 0, 0
	ledger := models.VoteLedger{}

	counts, ledger := Transition(up, down, ledger, "A", models.DirUp)
	if counts.Upvotes != 1 || counts.Downvotes != 0 || counts.Score != 1 {
		t.Fatalf("after A up: got %+v", counts)
	}
	if ledger["A"] != models.DirUp {
		t.Fatalf("after A up: ledger = %v", ledger)
	}

	counts, ledger = Transition(counts.Upvotes, counts.Downvotes, ledger, "A", models.DirUp)
	if counts.Upvotes != 0 || counts.Downvotes != 0 || counts.Score != 0 {
		t.Fatalf("after A re-up: got %+v", counts)
	}
	if len(ledger) != 0 {
		t.Fatalf("after A re-up: ledger should be empty, got %v", ledger)
	}

	counts, ledger = Transition(counts.Upvotes, counts.Downvotes, ledger, "A", models.DirDown)
	if counts.Upvotes != 0 || counts.Downvotes != 1 || counts.Score != -1 {
		t.Fatalf("after A down: got %+v", counts)
	}
	if ledger["A"] != models.DirDown {
		t.Fatalf("after A down: ledger = %v", ledger)
	}

	counts, ledger = Transition(counts.Upvotes, counts.Downvotes, ledger, "B", models.DirUp)
	if counts.Upvotes != 1 || counts.Downvotes != 1 || counts.Score != 0 {
		t.Fatalf("after B up: got %+v", counts)
	}
	if ledger["A"] != models.DirDown || ledger["B"] != models.DirUp {
		t.Fatalf("after B up: ledger = %v", ledger)
	}
}

func TestTransitionSwitchNeverDoubleCounts(t *testing.T) {
	ledger := models.VoteLedger{"A": models.DirUp}

	counts, next := Transition(1, 0, ledger, "A", models.DirDown)
	if counts.Upvotes != 0 || counts.Downvotes != 1 || counts.Score != -1 {
		t.Fatalf("switch up->down: got %+v", counts)
	}
	if next["A"] != models.DirDown || len(next) != 1 {
		t.Fatalf("switch up->down: ledger = %v", next)
	}
}

func TestTransitionIdempotentDoubleClick(t *testing.T) {
	// Two identical clicks return the prompt to its exact pre-vote state.
	start := models.VoteLedger{"B": models.DirDown}

	counts, ledger := Transition(0, 1, start, "A", models.DirUp)
	counts, ledger = Transition(counts.Upvotes, counts.Downvotes, ledger, "A", models.DirUp)

	if counts.Upvotes != 0 || counts.Downvotes != 1 || counts.Score != -1 {
		t.Fatalf("double click: got %+v", counts)
	}
	if len(ledger) != 1 || ledger["B"] != models.DirDown {
		t.Fatalf("double click: ledger = %v", ledger)
	}
}

func TestTransitionClampsCorruptCounters(t *testing.T) {
	// Counters already out of sync with the ledger: a retract must not go
	// negative.
	ledger := models.VoteLedger{"A": models.DirUp}

	counts, _ := Transition(0, 0, ledger, "A", models.DirUp)
	if counts.Upvotes != 0 || counts.Downvotes != 0 || counts.Score != 0 {
		t.Fatalf("clamp: got %+v", counts)
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	ledger := models.VoteLedger{"A": models.DirUp}

	_, next := Transition(1, 0, ledger, "A", models.DirUp)
	if ledger["A"] != models.DirUp {
		t.Fatalf("input ledger was mutated: %v", ledger)
	}
	if len(next) != 0 {
		t.Fatalf("result ledger should be empty: %v", next)
	}
}

func TestTransitionScoreInvariant(t *testing.T) {
	// Any single-user sequence keeps score == upvotes - downvotes and both
	// counters >= 0.
	seq := []models.Direction{
		models.DirUp, models.DirDown, models.DirDown, models.DirUp,
		models.DirUp, models.DirUp, models.DirDown,
	}

	up, down := 0, 0
	ledger := models.VoteLedger{}
	for i, dir := range seq {
		var counts Counts
		counts, ledger = Transition(up, down, ledger, "A", dir)
		if counts.Score != counts.Upvotes-counts.Downvotes {
			t.Fatalf("step %d: score %d != %d - %d", i, counts.Score, counts.Upvotes, counts.Downvotes)
		}
		if counts.Upvotes < 0 || counts.Downvotes < 0 {
			t.Fatalf("step %d: negative counter %+v", i, counts)
		}
		if v, ok := ledger["A"]; ok && !v.Valid() {
			t.Fatalf("step %d: invalid ledger entry %q", i, v)
		}
		up, down = counts.Upvotes, counts.Downvotes
	}
}

func TestRecount(t *testing.T) {
	counts := Recount(models.VoteLedger{
		"A": models.DirUp,
		"B": models.DirUp,
		"C": models.DirDown,
	})
	if counts.Upvotes != 2 || counts.Downvotes != 1 || counts.Score != 1 {
		t.Fatalf("recount: got %+v", counts)
	}

	if counts := Recount(nil); counts != (Counts{}) {
		t.Fatalf("recount nil: got %+v", counts)
	}
}
