// Package services hosts background jobs that run beside the request path.
package services

import (
	"time"

	"prompthub/internal/db"
	"prompthub/internal/models"
	"prompthub/internal/votes"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// LedgerAudit re-derives every prompt's counters and score from its embedded
// ledger and repairs rows that drifted (negative counters, score out of sync
// with upvotes-downvotes). The repair goes through the same versioned
// conditional write as the vote engine, so a concurrent vote always wins over
// a stale audit snapshot.
type LedgerAudit struct {
	cron *cron.Cron
}

func NewLedgerAudit() *LedgerAudit {
	return &LedgerAudit{cron: cron.New()}
}

// Start schedules the nightly run. Blocks only until the scheduler is up.
func (a *LedgerAudit) Start() error {
	if _, err := a.cron.AddFunc("0 3 * * *", func() { a.RunOnce() }); err != nil {
		return err
	}
	a.cron.Start()
	return nil
}

func (a *LedgerAudit) Stop() {
	a.cron.Stop()
}

// RunOnce audits the whole table in batches. Safe to call ad hoc.
func (a *LedgerAudit) RunOnce() {
	started := time.Now()
	var repaired, scanned int

	const batchSize = 200
	var lastID uint
	for {
		var prompts []models.Prompt
		if err := db.DB.Where("id > ?", lastID).Order("id ASC").Limit(batchSize).Find(&prompts).Error; err != nil {
			logrus.WithError(err).Error("ledger audit: batch read failed")
			return
		}
		if len(prompts) == 0 {
			break
		}
		for i := range prompts {
			p := &prompts[i]
			lastID = p.ID
			scanned++
			if a.repair(p) {
				repaired++
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"scanned":  scanned,
		"repaired": repaired,
		"took":     time.Since(started).Round(time.Millisecond),
	}).Info("ledger audit finished")
}

// repair fixes one row if its cached counters disagree with its ledger.
// Returns true when a write happened.
func (a *LedgerAudit) repair(p *models.Prompt) bool {
	want := votes.Recount(p.VotosUsuarios)
	if p.Upvotes == want.Upvotes && p.Downvotes == want.Downvotes && p.Score == want.Score {
		return false
	}

	res := db.DB.Model(&models.Prompt{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"upvotes":   want.Upvotes,
			"downvotes": want.Downvotes,
			"score":     want.Score,
			"version":   p.Version + 1,
		})
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("prompt", p.ID).Warn("ledger audit: repair failed")
		return false
	}
	if res.RowsAffected == 0 {
		// A vote landed after our read; that write already recomputed
		// everything, so there is nothing left to repair.
		return false
	}

	logrus.WithFields(logrus.Fields{
		"prompt": p.ID,
		"up":     want.Upvotes,
		"down":   want.Downvotes,
		"score":  want.Score,
	}).Warn("ledger audit: repaired drifted counters")
	return true
}
