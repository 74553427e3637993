package chat

import (
	"bytes"
	"encoding/json"
)

// payloadProbe is the loose shape of an event's message payload. Gateways
// send free-form objects; only content and text matter here.
type payloadProbe struct {
	Content json.RawMessage `json:"content"`
	Text    json.RawMessage `json:"text"`
}

// payloadText extracts display text from a delta payload: the object's
// content field if it is a string, then its text field. Missing payloads,
// non-objects, and non-string fields all yield "".
func payloadText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var probe payloadProbe
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return ""
	}
	if s, ok := asString(probe.Content); ok {
		return s
	}
	if s, ok := asString(probe.Text); ok {
		return s
	}
	return ""
}

// finalPayloadText extracts display text from a final payload. Finals accept
// one extra shape: a bare JSON string standing in for the whole message.
func finalPayloadText(raw json.RawMessage) string {
	if s, ok := asString(raw); ok {
		return s
	}
	return payloadText(raw)
}

func asString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}
