package votes

import (
	"context"
	"errors"
	"sync"

	"prompthub/internal/models"
)

var (
	// ErrInFlight rejects a click while a prior vote on the same prompt
	// is still pending. Clicks on other prompts are unaffected.
	ErrInFlight = errors.New("votes: action already in flight")
	// ErrUnknownPrompt means the mirror was never seeded for the prompt.
	ErrUnknownPrompt = errors.New("votes: prompt not loaded in mirror")
)

// Snapshot is the viewer's projected state for one prompt: the counters as
// currently displayed plus their own vote. Never authoritative.
type Snapshot struct {
	Upvotes   int
	Downvotes int
	MyVote    models.Direction
}

// Predict computes the toggle transition locally, mirroring the engine, so
// the UI can render the outcome before the store confirms it.
func Predict(s Snapshot, dir models.Direction) Snapshot {
	ledger := models.VoteLedger{}
	if s.MyVote.Valid() {
		ledger["me"] = s.MyVote
	}
	counts, next := Transition(s.Upvotes, s.Downvotes, ledger, "me", dir)
	return Snapshot{Upvotes: counts.Upvotes, Downvotes: counts.Downvotes, MyVote: next["me"]}
}

// Mirror holds per-prompt projected state for one viewing session. It applies
// predictions immediately, serializes actions per prompt, and reconciles with
// the committed result, rolling back on failure. It never persists anything;
// Load rebuilds it from the authoritative prompt snapshot each time.
type Mirror struct {
	committer Committer
	ledgerKey string

	mu      sync.Mutex
	entries map[uint]*mirrorEntry
}

type mirrorEntry struct {
	state    Snapshot
	inFlight bool
}

func NewMirror(committer Committer, ledgerKey string) *Mirror {
	return &Mirror{
		committer: committer,
		ledgerKey: ledgerKey,
		entries:   make(map[uint]*mirrorEntry),
	}
}

// Load seeds the projection for a prompt from its authoritative snapshot,
// deriving MyVote from the embedded ledger.
func (m *Mirror) Load(p *models.Prompt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[p.ID] = &mirrorEntry{state: Snapshot{
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
		MyVote:    p.UserVote(m.ledgerKey),
	}}
}

// State returns the currently displayed snapshot for a prompt.
func (m *Mirror) State(promptID uint) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[promptID]
	if !ok {
		return Snapshot{}, false
	}
	return e.state, true
}

// Vote runs the two-phase optimistic update: reject locally if the caller is
// unauthenticated or the prompt already has an action pending, render the
// predicted state, then commit. On success the committed counters replace the
// prediction; on failure every field reverts to its pre-click value.
//
// The commit runs outside the mirror lock so votes on other prompts stay
// usable while this one is in flight.
func (m *Mirror) Vote(ctx context.Context, promptID uint, dir models.Direction) (Snapshot, error) {
	if m.ledgerKey == "" {
		return Snapshot{}, ErrUnauthenticated
	}
	if !dir.Valid() {
		return Snapshot{}, ErrInvalidDirection
	}

	m.mu.Lock()
	e, ok := m.entries[promptID]
	if !ok {
		m.mu.Unlock()
		return Snapshot{}, ErrUnknownPrompt
	}
	if e.inFlight {
		current := e.state
		m.mu.Unlock()
		return current, ErrInFlight
	}
	before := e.state
	e.state = Predict(before, dir)
	e.inFlight = true
	m.mu.Unlock()

	res, err := m.committer.ApplyVote(ctx, promptID, m.ledgerKey, dir)

	m.mu.Lock()
	defer m.mu.Unlock()
	e.inFlight = false
	if err != nil {
		e.state = before
		return before, err
	}
	e.state = Snapshot{Upvotes: res.Upvotes, Downvotes: res.Downvotes, MyVote: res.MyVote}
	return e.state, nil
}

// DeleteFunc removes a prompt from the store.
type DeleteFunc func(ctx context.Context, promptID uint) error

// Delete runs a removal under the same per-prompt serialization as Vote: a
// delete while a vote or another delete is pending on the prompt is rejected,
// and a pending delete blocks votes. On success the projection is dropped; on
// failure it stays unchanged.
func (m *Mirror) Delete(ctx context.Context, promptID uint, remove DeleteFunc) error {
	if m.ledgerKey == "" {
		return ErrUnauthenticated
	}

	m.mu.Lock()
	e, ok := m.entries[promptID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownPrompt
	}
	if e.inFlight {
		m.mu.Unlock()
		return ErrInFlight
	}
	e.inFlight = true
	m.mu.Unlock()

	err := remove(ctx, promptID)

	m.mu.Lock()
	defer m.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return err
	}
	delete(m.entries, promptID)
	return nil
}
