package identity

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emerick-P/QuackChat/domain/palette"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// patchable lists the columns a patch may touch; anything else is dropped.
var patchable = map[string]bool{
	"display":      true,
	"avatar_color": true,
}

// Repository provides access to user storage. It is cheap to construct, so
// transactional callers wrap their tx handle in a fresh one.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a user repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a user by ID.
func (r *Repository) Get(id string) (*User, error) {
	var user User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// Create saves a new user.
func (r *Repository) Create(id, display, avatarColor string) (*User, error) {
	user := &User{ID: id, Display: display, AvatarColor: avatarColor}
	if err := r.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Patch applies whitelisted field changes and returns the updated record.
// Non-patchable keys are ignored; validation is the service's concern.
func (r *Repository) Patch(id string, changes map[string]any) (*User, error) {
	user, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	filtered := make(map[string]any, len(changes))
	for k, v := range changes {
		if patchable[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return user, nil
	}

	if err := r.db.Model(user).Updates(filtered).Error; err != nil {
		return nil, fmt.Errorf("failed to patch user: %w", err)
	}
	return r.Get(id)
}

// EnsureForLogin creates the user if missing, otherwise refreshes only the
// display name. The avatar color is never touched on login.
func (r *Repository) EnsureForLogin(id, display string) (*User, error) {
	user, err := r.Get(id)
	if errors.Is(err, ErrNotFound) {
		return r.Create(id, display, palette.DefaultColor)
	}
	if err != nil {
		return nil, err
	}

	if user.Display != display {
		return r.Patch(id, map[string]any{"display": display})
	}
	return user, nil
}
