package pairing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a code does not exist.
var ErrNotFound = errors.New("pairing code not found")

// DefaultTTL is how long a code stays claimable.
const DefaultTTL = 300 * time.Second

// generateCode returns a short human-typeable token: 6 uppercase hex chars,
// a 2^24 keyspace, which keeps birthday collisions negligible for the
// handful of codes in flight at once.
func generateCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// Repository provides access to pairing code storage. Like the user
// repository it is cheap to construct around a transaction handle.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a pairing code repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new code expiring ttl from now.
func (r *Repository) Create(avatarColor, channel string, ttl time.Duration, now time.Time) (*Code, error) {
	token, err := generateCode()
	if err != nil {
		return nil, err
	}

	rec := &Code{
		Code:        token,
		AvatarColor: avatarColor,
		Channel:     channel,
		ExpiresAt:   now.Add(ttl),
	}
	if err := r.db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create pairing code: %w", err)
	}
	return rec, nil
}

// Get retrieves a code row.
func (r *Repository) Get(code string) (*Code, error) {
	var rec Code
	if err := r.db.First(&rec, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pairing code: %w", err)
	}
	return &rec, nil
}

// Delete removes a code row and reports whether a row was actually deleted.
// The false return is how a concurrent claimer learns it lost the race.
func (r *Repository) Delete(code string) (bool, error) {
	result := r.db.Delete(&Code{}, "code = ?", code)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete pairing code: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired reaps every code past its expiry.
func (r *Repository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Delete(&Code{}, "expires_at <= ?", now)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
