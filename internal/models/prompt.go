package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Direction is a user's current vote on a prompt.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	// DirNone means no ledger entry for the user.
	DirNone Direction = ""
)

func (d Direction) Valid() bool {
	return d == DirUp || d == DirDown
}

// Opposite returns the other direction. Only meaningful for up/down.
func (d Direction) Opposite() Direction {
	if d == DirUp {
		return DirDown
	}
	return DirUp
}

// VoteLedger maps a user's ledger key to their current vote direction.
// At most one entry per user; it is embedded in the prompt row (jsonb) so
// deleting a prompt removes its votes with it.
type VoteLedger map[string]Direction

func (l VoteLedger) Value() (driver.Value, error) {
	if l == nil {
		l = VoteLedger{}
	}
	return json.Marshal(l)
}

func (l *VoteLedger) Scan(value interface{}) error {
	if value == nil {
		*l = VoteLedger{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("votos_usuarios: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*l = VoteLedger{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Clone returns a copy safe to mutate without touching the original map.
func (l VoteLedger) Clone() VoteLedger {
	out := make(VoteLedger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// TagList stores tags as a jsonb array. Order is preserved and duplicates
// are kept as entered.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	return json.Marshal(t)
}

func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("tags: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*t = TagList{}
		return nil
	}
	return json.Unmarshal(raw, t)
}

// Prompt is a shared, votable text record. The JSON field names follow the
// original product's persisted layout (Spanish) and must not change.
type Prompt struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"userId"`
	User        User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AutorNombre string `gorm:"not null" json:"autorNombre"`
	Titulo      string `gorm:"not null" json:"titulo"`
	Contenido   string `gorm:"type:text;not null" json:"contenido"`

	Tags TagList `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`

	// Counters and score are only ever written through the vote engine
	// (and the nightly audit repair), never directly.
	Upvotes       int        `gorm:"not null;default:0" json:"upvotes"`
	Downvotes     int        `gorm:"not null;default:0" json:"downvotes"`
	Score         int        `gorm:"not null;default:0;index:idx_prompts_feed,priority:1,sort:desc" json:"score"`
	VotosUsuarios VoteLedger `gorm:"type:jsonb;not null;default:'{}'" json:"votosUsuarios"`

	// Version backs the compare-and-swap write in the vote engine.
	Version int64 `gorm:"not null;default:0" json:"-"`

	FechaCreacion      time.Time `gorm:"autoCreateTime;index:idx_prompts_feed,priority:2,sort:desc" json:"fechaCreacion"`
	FechaActualizacion time.Time `gorm:"autoUpdateTime" json:"fechaActualizacion"`
}

// UserVote derives the viewer's current vote from the embedded ledger.
func (p *Prompt) UserVote(ledgerKey string) Direction {
	if p.VotosUsuarios == nil {
		return DirNone
	}
	return p.VotosUsuarios[ledgerKey]
}
