package chat

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// RoleOrDefault parses a wire role, falling back when it is absent or not one
// ClawX knows how to render.
func RoleOrDefault(raw string, fallback Role) Role {
	switch Role(raw) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(raw)
	}
	return fallback
}

// ToolCallStatus tracks the forward-only lifecycle of a tool invocation.
type ToolCallStatus string

const (
	ToolCallPending   ToolCallStatus = "pending"
	ToolCallRunning   ToolCallStatus = "running"
	ToolCallCompleted ToolCallStatus = "completed"
	ToolCallError     ToolCallStatus = "error"
)

// ToolCall records a tool invocation attached to an assistant message. The
// client carries these for display and export; it never executes them.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    any            `json:"result,omitempty"`
	Status    ToolCallStatus `json:"status,omitempty"`
}

// Message is one transcript entry. IDs are unique within a transcript: user
// turns get fresh ULIDs, streamed assistant turns share the run-derived ID so
// redelivered events land on the same entry.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"ts"`
	Channel   string     `json:"channel,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// MessagePatch is a partial update. Nil fields leave the target untouched; a
// non-nil ToolCalls replaces the whole list.
type MessagePatch struct {
	Content   *string
	Channel   *string
	ToolCalls []ToolCall
}

// RunMessageID derives the transcript ID that every event of a run collapses
// onto.
func RunMessageID(runID string) string {
	return "run-" + runID
}

// NewUserMessage builds an optimistic user turn stamped with a fresh ULID.
func NewUserMessage(content string) Message {
	return Message{
		ID:        ulid.Make().String(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
