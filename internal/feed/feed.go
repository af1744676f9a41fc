// Package feed defines the shared listing order over prompts and the
// client-side title filter applied on top of an already-fetched snapshot.
package feed

import (
	"iter"
	"sort"
	"strings"

	"prompthub/internal/models"
)

// Less is the total feed order: score descending, then creation time
// descending, then prompt id ascending so equal (score, timestamp) pairs stay
// stable across reloads.
func Less(a, b *models.Prompt) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.FechaCreacion.Equal(b.FechaCreacion) {
		return a.FechaCreacion.After(b.FechaCreacion)
	}
	return a.ID < b.ID
}

// Order yields the prompts in feed order as a lazy sequence. The input slice
// is not modified.
func Order(prompts []models.Prompt) iter.Seq[models.Prompt] {
	sorted := make([]models.Prompt, len(prompts))
	copy(sorted, prompts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(&sorted[i], &sorted[j])
	})
	return func(yield func(models.Prompt) bool) {
		for _, p := range sorted {
			if !yield(p) {
				return
			}
		}
	}
}

// FilterTitle keeps prompts whose titulo contains term, case-insensitively.
// It is a pure filter over a snapshot that is already in feed order; it never
// goes back to the store. An empty term keeps everything.
func FilterTitle(prompts []models.Prompt, term string) []models.Prompt {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return prompts
	}
	out := make([]models.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if strings.Contains(strings.ToLower(p.Titulo), term) {
			out = append(out, p)
		}
	}
	return out
}
