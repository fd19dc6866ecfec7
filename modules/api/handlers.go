package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Emerick-P/QuackChat/domain/palette"
	"github.com/Emerick-P/QuackChat/events"
	"github.com/Emerick-P/QuackChat/modules/auth"
	"github.com/Emerick-P/QuackChat/modules/bridge"
	"github.com/Emerick-P/QuackChat/modules/identity"
	"github.com/Emerick-P/QuackChat/modules/pairing"
	"github.com/Emerick-P/QuackChat/modules/rooms"
)

// DefaultChannel is the overlay channel used when a request names none.
const DefaultChannel = "default"

// Handlers contains HTTP and WebSocket handlers.
type Handlers struct {
	registry    *rooms.Registry
	broadcaster bridge.Broadcaster
	pairing     *pairing.Service
	avatars     *identity.Service
	users       *identity.Repository
	auth        *auth.Service
	logger      *slog.Logger
}

// NewHandlers creates a new handlers instance. The broadcaster is wired after
// the bridge module has selected one.
func NewHandlers(registry *rooms.Registry, pairingSvc *pairing.Service, avatars *identity.Service, users *identity.Repository, authSvc *auth.Service) *Handlers {
	return &Handlers{
		registry: registry,
		pairing:  pairingSvc,
		avatars:  avatars,
		users:    users,
		auth:     authSvc,
		logger:   slog.Default(),
	}
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "quackchat-backend",
	})
}

// GetPalette handles palette listing requests (GET /palette). Clients render
// their color pickers from this instead of hardcoding the catalog.
func (h *Handlers) GetPalette(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"palette": palette.All(),
		"default": palette.DefaultColor,
	})
}

// CreatePairing handles pairing code creation (POST /pairing).
func (h *Handlers) CreatePairing(c *fiber.Ctx) error {
	var req CreatePairingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if req.Channel == "" {
		req.Channel = DefaultChannel
	}

	code, expiresIn, err := h.pairing.Create(c.UserContext(), req.Color, req.Channel)
	if errors.Is(err, pairing.ErrInvalidValue) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "InvalidValue"})
	}
	if err != nil {
		h.logger.Error("Failed to create pairing code", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(CreatePairingResponse{Code: code, ExpiresIn: expiresIn})
}

// ClaimPairing handles pairing code claims (POST /pairing/claim). The three
// rejection reasons stay distinguishable in the body so the overlay can tell
// the viewer what went wrong; they are domain outcomes, not HTTP errors.
func (h *Handlers) ClaimPairing(c *fiber.Ctx) error {
	var req ClaimPairingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user_id is required"})
	}
	if req.Channel == "" {
		req.Channel = DefaultChannel
	}

	color, err := h.pairing.Claim(c.UserContext(), req.Code, req.UserID, req.Channel)
	switch {
	case errors.Is(err, pairing.ErrInvalidCode):
		return c.JSON(ErrorResponse{Error: "InvalidCode"})
	case errors.Is(err, pairing.ErrWrongChannel):
		return c.JSON(ErrorResponse{Error: "WrongChannel"})
	case errors.Is(err, pairing.ErrExpired):
		return c.JSON(ErrorResponse{Error: "Expired"})
	case err != nil:
		h.logger.Error("Failed to claim pairing code", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(ClaimPairingResponse{OK: true, AvatarColor: color})
}

// GetMyAvatar handles avatar reads for the authenticated user (GET /me/avatar).
func (h *Handlers) GetMyAvatar(c *fiber.Ctx) error {
	claims, ok := claimsFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	color, err := h.avatars.Avatar(claims.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "User not found"})
	}
	if err != nil {
		h.logger.Error("Failed to load avatar", "userID", claims.UserID, "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"user_id": claims.UserID,
		"avatar":  AvatarOut{Color: color},
	})
}

// PatchMyAvatar handles partial avatar updates for the authenticated user
// (PATCH /me/avatar). The overlay channel to notify comes from the query.
func (h *Handlers) PatchMyAvatar(c *fiber.Ctx) error {
	claims, ok := claimsFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	patch := map[string]any{}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	channel := c.Query("channel", DefaultChannel)

	color, err := h.avatars.ApplyAvatarPatch(c.UserContext(), claims.UserID, patch, channel)
	switch {
	case errors.Is(err, identity.ErrUnknownField):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Field not editable"})
	case errors.Is(err, identity.ErrInvalidValue):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "InvalidValue"})
	case errors.Is(err, identity.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "User not found"})
	case err != nil:
		h.logger.Error("Failed to patch avatar", "userID", claims.UserID, "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"ok":     true,
		"avatar": AvatarOut{Color: color},
	})
}

// DevLogin handles development logins (POST /auth/dev/login). Mounted only
// outside production.
func (h *Handlers) DevLogin(c *fiber.Ctx) error {
	var req DevLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if req.Display == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "display is required"})
	}

	token, user, err := h.auth.DevLogin(req.Display, req.UserID)
	if err != nil {
		h.logger.Error("Dev login failed", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"token":   token,
		"user_id": user.ID,
		"display": user.Display,
	})
}

// DevTestPush injects a chat envelope into an overlay channel
// (GET /_dev/overlay/testpush). Mounted only outside production.
func (h *Handlers) DevTestPush(c *fiber.Ctx) error {
	userID := c.Query("user_id", "twitch:test")
	display := c.Query("display", "Viewer")
	message := c.Query("message", "Hello!")
	channel := c.Query("channel", DefaultChannel)

	color := palette.DefaultColor
	if user, err := h.users.Get(userID); err == nil {
		color = user.AvatarColor
	}

	env := events.NewChat(userID, display, message, color)
	if err := h.broadcaster.Send(c.UserContext(), channel, env); err != nil {
		h.logger.Error("Test push failed", "channel", channel, "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"sent": true, "channel": channel})
}
