// Package events defines the overlay wire format shared by the websocket
// surface and the broker bridge.
package events

import "encoding/json"

// Event kinds understood by overlay clients.
const (
	KindChat                = "chat"
	KindCustomizationUpdate = "customization_update"
)

// SchemaVersion is the current wire schema version for all kinds.
const SchemaVersion = 1

// Envelope is a single overlay event. Kind selects which fields are
// meaningful; unused fields are omitted from the wire.
type Envelope struct {
	Kind          string `json:"kind"`
	SchemaVersion int    `json:"schema_version"`
	UserID        string `json:"user_id"`
	Display       string `json:"display,omitempty"`
	Message       string `json:"message,omitempty"`
	Customization string `json:"customization"`
}

// NewChat builds a chat envelope.
func NewChat(userID, display, message, customization string) Envelope {
	return Envelope{
		Kind:          KindChat,
		SchemaVersion: SchemaVersion,
		UserID:        userID,
		Display:       display,
		Message:       message,
		Customization: customization,
	}
}

// NewCustomizationUpdate builds a customization_update envelope.
func NewCustomizationUpdate(userID, customization string) Envelope {
	return Envelope{
		Kind:          KindCustomizationUpdate,
		SchemaVersion: SchemaVersion,
		UserID:        userID,
		Customization: customization,
	}
}

// Encode marshals the envelope to its compact JSON wire form.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an envelope from the wire. Malformed payloads and unknown
// kinds report ok=false; receivers drop them rather than fail.
func Decode(data []byte) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, false
	}
	switch env.Kind {
	case KindChat, KindCustomizationUpdate:
		return env, true
	default:
		return Envelope{}, false
	}
}
