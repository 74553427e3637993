package chat

import (
	"encoding/json"
	"testing"
)

func TestPayloadText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "Content field",
			raw:  `{"content":"hello"}`,
			want: "hello",
		},
		{
			name: "Text field",
			raw:  `{"text":"hello"}`,
			want: "hello",
		},
		{
			name: "Content wins over text",
			raw:  `{"content":"from content","text":"from text"}`,
			want: "from content",
		},
		{
			name: "Non-string content falls through to text",
			raw:  `{"content":{"blocks":[]},"text":"fallback"}`,
			want: "fallback",
		},
		{
			name: "Numeric content ignored",
			raw:  `{"content":42}`,
			want: "",
		},
		{
			name: "Bare string is not a delta payload",
			raw:  `"just a string"`,
			want: "",
		},
		{
			name: "Missing payload",
			raw:  ``,
			want: "",
		},
		{
			name: "Null payload",
			raw:  `null`,
			want: "",
		},
		{
			name: "Array payload",
			raw:  `[1,2,3]`,
			want: "",
		},
		{
			name: "Object without known fields",
			raw:  `{"other":"value"}`,
			want: "",
		},
		{
			name: "Malformed JSON",
			raw:  `{"content":`,
			want: "",
		},
		{
			name: "Leading whitespace",
			raw:  `  {"content":"trimmed"}`,
			want: "trimmed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payloadText(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("payloadText(%s): got %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFinalPayloadText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "Bare string accepted",
			raw:  `"the final answer"`,
			want: "the final answer",
		},
		{
			name: "Object content",
			raw:  `{"content":"the final answer"}`,
			want: "the final answer",
		},
		{
			name: "Object text",
			raw:  `{"text":"the final answer"}`,
			want: "the final answer",
		},
		{
			name: "Empty bare string",
			raw:  `""`,
			want: "",
		},
		{
			name: "Missing payload",
			raw:  ``,
			want: "",
		},
		{
			name: "Unterminated string",
			raw:  `"oops`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finalPayloadText(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("finalPayloadText(%s): got %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRunMessageID(t *testing.T) {
	if got := RunMessageID("abc123"); got != "run-abc123" {
		t.Errorf("RunMessageID: got %q, want %q", got, "run-abc123")
	}
}

func TestRoleOrDefault(t *testing.T) {
	if got := RoleOrDefault("user", RoleAssistant); got != RoleUser {
		t.Errorf("Known role: got %q, want %q", got, RoleUser)
	}
	if got := RoleOrDefault("", RoleAssistant); got != RoleAssistant {
		t.Errorf("Empty role: got %q, want %q", got, RoleAssistant)
	}
	if got := RoleOrDefault("robot", RoleAssistant); got != RoleAssistant {
		t.Errorf("Unknown role: got %q, want %q", got, RoleAssistant)
	}
}
