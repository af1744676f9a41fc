// Package votes owns the vote ledger: the toggle state machine, the
// transactional engine that applies it against the store, and the optimistic
// mirror used by interactive callers.
package votes

import "prompthub/internal/models"

// Counts is the aggregate state of a prompt's votes.
type Counts struct {
	Upvotes   int
	Downvotes int
	Score     int
}

// Transition applies one vote action to a ledger snapshot and returns the
// next counters plus the mutated ledger copy. It is pure: the input ledger is
// never modified.
//
// Rules, on the user's previous entry vs the requested direction:
//   - same direction: retract (entry removed, matching counter -1)
//   - opposite or none: apply (entry set, matching counter +1, and the
//     opposite counter -1 when switching, so a switch never double-counts)
//
// Counters are clamped at zero so corrupt source data cannot go negative,
// and the score is always recomputed as upvotes - downvotes.
func Transition(up, down int, ledger models.VoteLedger, ledgerKey string, dir models.Direction) (Counts, models.VoteLedger) {
	next := ledger.Clone()
	prev := next[ledgerKey]

	if prev == dir {
		delete(next, ledgerKey)
		if dir == models.DirUp {
			up--
		} else {
			down--
		}
	} else {
		if prev == dir.Opposite() {
			if prev == models.DirUp {
				up--
			} else {
				down--
			}
		}
		next[ledgerKey] = dir
		if dir == models.DirUp {
			up++
		} else {
			down++
		}
	}

	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	return Counts{Upvotes: up, Downvotes: down, Score: up - down}, next
}

// Recount rebuilds the counters from the ledger alone. Used by the audit job
// to repair rows whose cached counters drifted from their ledger.
func Recount(ledger models.VoteLedger) Counts {
	var up, down int
	for _, d := range ledger {
		switch d {
		case models.DirUp:
			up++
		case models.DirDown:
			down++
		}
	}
	return Counts{Upvotes: up, Downvotes: down, Score: up - down}
}
