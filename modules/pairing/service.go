package pairing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Emerick-P/QuackChat/domain/palette"
	"github.com/Emerick-P/QuackChat/events"
	"github.com/Emerick-P/QuackChat/modules/bridge"
	"github.com/Emerick-P/QuackChat/modules/identity"
)

// Domain outcomes of the pairing protocol. These are the only errors that
// propagate to callers; everything else is an internal storage failure.
var (
	ErrInvalidValue = errors.New("guests may only pick public colors")
	ErrInvalidCode  = errors.New("invalid code")
	ErrWrongChannel = errors.New("wrong channel")
	ErrExpired      = errors.New("code expired")
)

// Service orchestrates pairing code creation and the one-time claim.
type Service struct {
	db          *gorm.DB
	ttl         time.Duration
	now         func() time.Time
	broadcaster bridge.Broadcaster
}

// NewService creates the pairing service.
func NewService(db *gorm.DB, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// SetBroadcaster wires the outbound event path.
func (s *Service) SetBroadcaster(b bridge.Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create issues a pairing code for a guest-pickable color on a channel.
// The returned seconds-until-expiry is recomputed from the stored timestamp
// rather than echoing the TTL.
func (s *Service) Create(ctx context.Context, avatarColor, channel string) (string, int, error) {
	if !palette.IsPublic(avatarColor) {
		return "", 0, ErrInvalidValue
	}

	rec, err := NewRepository(s.db.WithContext(ctx)).Create(avatarColor, channel, s.ttl, s.now())
	if err != nil {
		return "", 0, err
	}

	expiresIn := int(rec.ExpiresAt.Sub(s.now()).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return rec.Code, expiresIn, nil
}

// Claim consumes a code and applies its color to the claimant, creating the
// identity record when missing. A code is claimable at most once: the
// identity write and a conditional delete run in one transaction, and the
// claimer whose delete hits zero rows fails with ErrInvalidCode exactly like
// a code that never existed. The update envelope goes out only after commit.
func (s *Service) Claim(ctx context.Context, code, userID, channel string) (string, error) {
	codes := NewRepository(s.db.WithContext(ctx))

	rec, err := codes.Get(code)
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCode
	}
	if err != nil {
		return "", err
	}
	if rec.Channel != channel {
		return "", ErrWrongChannel
	}
	if !s.now().Before(rec.ExpiresAt) {
		// Lazy reap: the expired row is gone after this, so a retry sees
		// ErrInvalidCode rather than ErrExpired.
		if _, err := codes.Delete(code); err != nil {
			return "", err
		}
		return "", ErrExpired
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := identity.NewRepository(tx)
		if _, err := users.Get(userID); errors.Is(err, identity.ErrNotFound) {
			if _, err := users.Create(userID, userID, rec.AvatarColor); err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else if _, err := users.Patch(userID, map[string]any{"avatar_color": rec.AvatarColor}); err != nil {
			return err
		}

		deleted, err := NewRepository(tx).Delete(code)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrInvalidCode
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if s.broadcaster != nil {
		env := events.NewCustomizationUpdate(userID, rec.AvatarColor)
		if err := s.broadcaster.Send(ctx, channel, env); err != nil {
			slog.Warn("Failed to publish pairing update", "userID", userID, "channel", channel, "error", err)
		}
	}
	return rec.AvatarColor, nil
}

// SweepExpired deletes every expired code. Called by the periodic reaper.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return NewRepository(s.db.WithContext(ctx)).DeleteExpired(s.now())
}
