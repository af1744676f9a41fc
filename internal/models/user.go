package models

import (
	"strconv"
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null" json:"username"` // display name, shown as autorNombre
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// No DeletedAt for hard delete
}

// LedgerKey is the identity used for ledger entries and ownership checks.
// Must stay stable and unique for the lifetime of the account.
func (u *User) LedgerKey() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
