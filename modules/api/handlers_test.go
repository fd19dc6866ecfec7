package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Emerick-P/QuackChat/events"
	"github.com/Emerick-P/QuackChat/modules/auth"
	"github.com/Emerick-P/QuackChat/modules/bridge"
	"github.com/Emerick-P/QuackChat/modules/identity"
	"github.com/Emerick-P/QuackChat/modules/pairing"
	"github.com/Emerick-P/QuackChat/modules/rooms"
)

// recordingConn captures frames delivered to an overlay channel.
type recordingConn struct {
	frames [][]byte
}

func (c *recordingConn) WriteText(data []byte) error {
	c.frames = append(c.frames, data)
	return nil
}

func (c *recordingConn) Close() error { return nil }

type testEnv struct {
	app      *fiber.App
	registry *rooms.Registry
	users    *identity.Repository
}

// newTestEnv builds the full API surface over an in-memory database with the
// local broadcaster, without binding a port.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&identity.User{}, &pairing.Code{}))

	users := identity.NewRepository(db)
	avatars := identity.NewService(users)
	pairingSvc := pairing.NewService(db, pairing.DefaultTTL)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "quackchat-test",
	})
	authSvc := auth.NewService(jwtManager, users)

	registry := rooms.NewRegistry()
	broadcaster := bridge.NewLocal(registry)
	avatars.SetBroadcaster(broadcaster)
	pairingSvc.SetBroadcaster(broadcaster)

	handlers := NewHandlers(registry, pairingSvc, avatars, users, authSvc)
	m := NewModule(0, nil, true, handlers)
	m.SetBroadcaster(broadcaster)
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})
	m.registerRoutes()

	return &testEnv{app: m.app, registry: registry, users: users}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	return e.doAuthed(t, method, path, body, "")
}

func (e *testEnv) doAuthed(t *testing.T, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (e *testEnv) login(t *testing.T, display, userID string) string {
	t.Helper()
	resp, out := e.do(t, "POST", "/auth/dev/login", map[string]string{
		"display": display,
		"user_id": userID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthAndPalette(t *testing.T) {
	env := newTestEnv(t)

	resp, out := env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", out["status"])

	resp, out = env.do(t, "GET", "/palette", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "#8A2BE2", out["default"])
	catalog, ok := out["palette"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, catalog["public"], 2)
	assert.Len(t, catalog["locked"], 2)
}

func TestCreatePairingEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, out := env.do(t, "POST", "/pairing", CreatePairingRequest{Color: "#3B82F6"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code, _ := out["code"].(string)
	assert.Len(t, code, 6)
	assert.InDelta(t, 300, out["expires_in"], 1)

	// Locked colors are not guest-claimable.
	resp, out = env.do(t, "POST", "/pairing", CreatePairingRequest{Color: "#FFC93A"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidValue", out["error"])
}

func TestClaimPairingEndpoint(t *testing.T) {
	env := newTestEnv(t)

	_, out := env.do(t, "POST", "/pairing", CreatePairingRequest{Color: "#3B82F6", Channel: "c1"})
	code := out["code"].(string)

	// Wrong channel leaves the code claimable.
	resp, out := env.do(t, "POST", "/pairing/claim", ClaimPairingRequest{Code: code, UserID: "u1", Channel: "c2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WrongChannel", out["error"])

	resp, out = env.do(t, "POST", "/pairing/claim", ClaimPairingRequest{Code: code, UserID: "u1", Channel: "c1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "#3B82F6", out["avatar_color"])

	// A code is consumable exactly once.
	resp, out = env.do(t, "POST", "/pairing/claim", ClaimPairingRequest{Code: code, UserID: "u2", Channel: "c1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "InvalidCode", out["error"])

	user, err := env.users.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, "#3B82F6", user.AvatarColor)
}

func TestClaimBroadcastsToChannel(t *testing.T) {
	env := newTestEnv(t)

	conn := &recordingConn{}
	env.registry.Add(conn, "c1")

	_, out := env.do(t, "POST", "/pairing", CreatePairingRequest{Color: "#3B82F6", Channel: "c1"})
	code := out["code"].(string)

	resp, _ := env.do(t, "POST", "/pairing/claim", ClaimPairingRequest{Code: code, UserID: "u1", Channel: "c1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, conn.frames, 1)
	env2, ok := events.Decode(conn.frames[0])
	require.True(t, ok)
	assert.Equal(t, events.NewCustomizationUpdate("u1", "#3B82F6"), env2)
}

func TestMyAvatarRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "GET", "/me/avatar", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.doAuthed(t, "GET", "/me/avatar", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMyAvatarRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "Viewer", "twitch:42")

	resp, out := env.doAuthed(t, "GET", "/me/avatar", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "twitch:42", out["user_id"])
	avatar := out["avatar"].(map[string]any)
	assert.Equal(t, "#8A2BE2", avatar["color"])

	// Authenticated users may pick locked colors.
	resp, out = env.doAuthed(t, "PATCH", "/me/avatar", map[string]string{"avatar_color": "#FFC93A"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "#FFC93A", out["avatar"].(map[string]any)["color"])

	resp, out = env.doAuthed(t, "PATCH", "/me/avatar", map[string]string{"avatar_color": "#000000"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidValue", out["error"])

	resp, out = env.doAuthed(t, "PATCH", "/me/avatar", map[string]string{"display": "NewName"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Field not editable", out["error"])
}

func TestDevLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, out := env.do(t, "POST", "/auth/dev/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "display is required", out["error"])

	resp, out = env.do(t, "POST", "/auth/dev/login", map[string]string{"display": "Viewer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	userID, _ := out["user_id"].(string)
	assert.Contains(t, userID, "twitch:")
	assert.Equal(t, "Viewer", out["display"])
}

func TestDevTestPushDeliversChat(t *testing.T) {
	env := newTestEnv(t)

	conn := &recordingConn{}
	env.registry.Add(conn, "default")

	path := fmt.Sprintf("/_dev/overlay/testpush?display=%s&message=%s", "Viewer", "Hi")
	resp, out := env.do(t, "GET", path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["sent"])

	require.Len(t, conn.frames, 1)
	got, ok := events.Decode(conn.frames[0])
	require.True(t, ok)
	assert.Equal(t, events.KindChat, got.Kind)
	assert.Equal(t, "Viewer", got.Display)
	assert.Equal(t, "Hi", got.Message)
	assert.Equal(t, "#8A2BE2", got.Customization, "unknown user falls back to the default color")
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/overlay/ws?channel=default", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
