package pairing

import "time"

// Code is a one-time pairing code binding an avatar color and channel to a
// future claimant. Rows are never updated in place: a claim deletes the row,
// so "claimed" and "never existed" are the same observable state.
type Code struct {
	Code        string    `gorm:"primarykey;size:12" json:"code"`
	CreatedAt   time.Time `json:"created_at"`
	AvatarColor string    `gorm:"size:16;not null" json:"avatar_color"`
	Channel     string    `gorm:"size:64;not null" json:"channel"`
	ExpiresAt   time.Time `gorm:"index;not null" json:"expires_at"`
}

// TableName returns the table name for the Code model.
func (Code) TableName() string {
	return "pairing_codes"
}
