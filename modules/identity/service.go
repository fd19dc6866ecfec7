package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Emerick-P/QuackChat/domain/palette"
	"github.com/Emerick-P/QuackChat/events"
	"github.com/Emerick-P/QuackChat/modules/bridge"
)

var (
	// ErrInvalidValue is returned when a color is not in the catalog.
	ErrInvalidValue = errors.New("color not in palette")
	// ErrUnknownField is returned when a patch carries a non-editable field.
	ErrUnknownField = errors.New("field not editable")
)

// editableFields lists what clients may patch on their own avatar.
var editableFields = map[string]bool{
	"avatar_color": true,
}

// Service applies avatar customizations and notifies overlay channels.
type Service struct {
	repo        *Repository
	broadcaster bridge.Broadcaster
}

// NewService creates the avatar service. The broadcaster is wired after the
// bridge module has selected one.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// SetBroadcaster wires the outbound event path.
func (s *Service) SetBroadcaster(b bridge.Broadcaster) {
	s.broadcaster = b
}

// Avatar returns the current avatar color for a user.
func (s *Service) Avatar(userID string) (string, error) {
	user, err := s.repo.Get(userID)
	if err != nil {
		return "", err
	}
	return user.AvatarColor, nil
}

// ApplyAvatarPatch validates and applies a partial avatar update. All fields
// are validated before anything is written. When the color actually changes
// a customization_update envelope goes out on the given channel.
func (s *Service) ApplyAvatarPatch(ctx context.Context, userID string, patch map[string]any, channel string) (string, error) {
	user, err := s.repo.Get(userID)
	if err != nil {
		return "", err
	}

	changes := make(map[string]any, len(patch))
	for k, v := range patch {
		if !editableFields[k] {
			return "", ErrUnknownField
		}
		color, ok := v.(string)
		if !ok || !palette.IsKnown(color) {
			return "", ErrInvalidValue
		}
		if color != user.AvatarColor {
			changes[k] = color
		}
	}

	if len(changes) == 0 {
		return user.AvatarColor, nil
	}

	user, err = s.repo.Patch(userID, changes)
	if err != nil {
		return "", err
	}

	if s.broadcaster != nil {
		env := events.NewCustomizationUpdate(userID, user.AvatarColor)
		if err := s.broadcaster.Send(ctx, channel, env); err != nil {
			slog.Warn("Failed to publish customization update", "userID", userID, "error", err)
		}
	}
	return user.AvatarColor, nil
}
