package identity

import "time"

// User is an identity record with its avatar customization. Lifecycle is
// owned here; tokens only reference the ID.
type User struct {
	ID          string    `gorm:"primarykey;size:64" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Display     string    `gorm:"size:100;not null" json:"display"`
	AvatarColor string    `gorm:"size:16;not null" json:"avatar_color"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}
