package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prompthub/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrUnauthenticated is returned before any store access when the
	// caller has no identity.
	ErrUnauthenticated = errors.New("votes: not authenticated")
	// ErrNotFound means the prompt vanished before or during the write.
	// Never retried.
	ErrNotFound = errors.New("votes: prompt not found")
	// ErrConflict surfaces only after the retry budget is exhausted by
	// concurrent writers on the same prompt.
	ErrConflict = errors.New("votes: too many concurrent updates")
	// ErrInvalidDirection rejects anything but "up"/"down".
	ErrInvalidDirection = errors.New("votes: invalid direction")
)

const defaultMaxRetries = 5

// Result is the authoritative state after a vote was applied.
type Result struct {
	Upvotes   int              `json:"upvotes"`
	Downvotes int              `json:"downvotes"`
	Score     int              `json:"score"`
	MyVote    models.Direction `json:"myVote"`
}

// Committer is what the optimistic mirror commits through. The Engine is the
// production implementation.
type Committer interface {
	ApplyVote(ctx context.Context, promptID uint, ledgerKey string, dir models.Direction) (Result, error)
}

// Engine applies vote actions atomically: it reads the current row, runs the
// toggle transition, and writes back counters, ledger, score and timestamp
// guarded by the row version. A stale snapshot fails the conditional write
// and the whole cycle retries.
type Engine struct {
	db         *gorm.DB
	maxRetries int

	// beforeWrite, when set, runs between the snapshot read and the
	// conditional write. Tests use it to race the version check.
	beforeWrite func()
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, maxRetries: defaultMaxRetries}
}

// ApplyVote toggles the caller's vote on a prompt and returns the settled
// counters. dir must be "up" or "down"; re-sending the current direction
// retracts the vote.
func (e *Engine) ApplyVote(ctx context.Context, promptID uint, ledgerKey string, dir models.Direction) (Result, error) {
	if ledgerKey == "" {
		return Result{}, ErrUnauthenticated
	}
	if !dir.Valid() {
		return Result{}, ErrInvalidDirection
	}

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		res, err := e.attempt(ctx, promptID, ledgerKey, dir)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, errStaleRead) {
			return Result{}, err
		}
		logrus.WithFields(logrus.Fields{
			"prompt":  promptID,
			"attempt": attempt + 1,
		}).Debug("vote write raced, retrying")
		// Tiny backoff keeps two stubborn writers from lockstepping.
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 2 * time.Millisecond):
		}
	}
	return Result{}, ErrConflict
}

// errStaleRead is internal: the snapshot went stale between read and write.
var errStaleRead = errors.New("votes: stale read")

func (e *Engine) attempt(ctx context.Context, promptID uint, ledgerKey string, dir models.Direction) (Result, error) {
	var p models.Prompt
	if err := e.db.WithContext(ctx).First(&p, promptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("votes: read prompt %d: %w", promptID, err)
	}

	counts, ledger := Transition(p.Upvotes, p.Downvotes, p.VotosUsuarios, ledgerKey, dir)

	if e.beforeWrite != nil {
		e.beforeWrite()
	}

	// Conditional write: commits only if nobody else bumped the version
	// since our read. Vote writes deliberately leave titulo/contenido/tags
	// alone so owner edits and votes never conflict on fields.
	update := e.db.WithContext(ctx).Model(&models.Prompt{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"upvotes":             counts.Upvotes,
			"downvotes":           counts.Downvotes,
			"score":               counts.Score,
			"votos_usuarios":      ledger,
			"version":             p.Version + 1,
			"fecha_actualizacion": time.Now(),
		})
	if update.Error != nil {
		return Result{}, fmt.Errorf("votes: write prompt %d: %w", promptID, update.Error)
	}
	if update.RowsAffected == 0 {
		// Either a concurrent writer moved the version, or the prompt
		// was deleted outright. Only the former is retryable.
		var n int64
		if err := e.db.WithContext(ctx).Model(&models.Prompt{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
			return Result{}, fmt.Errorf("votes: recheck prompt %d: %w", promptID, err)
		}
		if n == 0 {
			return Result{}, ErrNotFound
		}
		return Result{}, errStaleRead
	}

	return Result{
		Upvotes:   counts.Upvotes,
		Downvotes: counts.Downvotes,
		Score:     counts.Score,
		MyVote:    ledger[ledgerKey],
	}, nil
}
