package events

import (
	"strings"
	"testing"
)

func TestEncodeDecodeChat(t *testing.T) {
	env := NewChat("twitch:42", "Viewer", "Hello!", "#3B82F6")

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, ok := Decode(data)
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}
	if decoded != env {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, env)
	}
	if decoded.SchemaVersion != SchemaVersion {
		t.Errorf("schema_version = %d, want %d", decoded.SchemaVersion, SchemaVersion)
	}
}

func TestEncodeOmitsChatOnlyFields(t *testing.T) {
	env := NewCustomizationUpdate("twitch:42", "#8A2BE2")

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	s := string(data)
	if strings.Contains(s, "display") || strings.Contains(s, "message") {
		t.Errorf("customization_update wire form carries chat fields: %s", s)
	}
}

func TestDecodeDropsUnknownKind(t *testing.T) {
	if _, ok := Decode([]byte(`{"kind":"presence","schema_version":1,"user_id":"u1"}`)); ok {
		t.Error("Decode() accepted an unknown kind")
	}
}

func TestDecodeDropsMalformed(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"kind":`} {
		if _, ok := Decode([]byte(payload)); ok {
			t.Errorf("Decode(%q) accepted malformed payload", payload)
		}
	}
}
