package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bit-cook/ClawX/internal/gateway"
)

// Gateway is the slice of the wire client the session needs.
type Gateway interface {
	History(ctx context.Context, sessionKey string, limit int) (gateway.HistoryAck, error)
	Send(ctx context.Context, sessionKey, message, idempotencyKey string) (gateway.SendAck, error)
	Clear(ctx context.Context, sessionKey string) (gateway.ClearAck, error)
}

// Session drives the request side of a conversation against one session key.
// Failures never propagate as errors; they are folded into State and rendered
// by the UI: a failed send keeps the optimistic message and raises an error,
// a failed history load degrades to an empty transcript.
type Session struct {
	gw         Gateway
	state      *State
	sessionKey string
}

func NewSession(gw Gateway, state *State, sessionKey string) *Session {
	return &Session{
		gw:         gw,
		state:      state,
		sessionKey: sessionKey,
	}
}

func (s *Session) SessionKey() string { return s.sessionKey }

// LoadHistory replaces the transcript with the gateway's view of the session.
// Any failure, transport or rejection, lands as an empty transcript.
func (s *Session) LoadHistory(ctx context.Context, limit int) {
	s.state.SetLoading(true)
	s.state.SetLastError("")

	ack, err := s.gw.History(ctx, s.sessionKey, limit)
	switch {
	case err != nil:
		slog.Warn("history fetch failed", "session_key", s.sessionKey, "error", err)
		s.state.ReplaceAll(nil)
	case !ack.OK:
		slog.Warn("history fetch rejected", "session_key", s.sessionKey, "error", ack.Err)
		s.state.ReplaceAll(nil)
	default:
		msgs := make([]Message, 0, len(ack.Messages))
		for i, raw := range ack.Messages {
			msgs = append(msgs, messageFromRaw(raw, i))
		}
		s.state.ReplaceAll(msgs)
	}

	s.state.SetLoading(false)
}

// messageFromRaw maps one history record, defaulting every missing field
// independently.
func messageFromRaw(raw gateway.RawMessage, pos int) Message {
	msg := Message{
		ID:        raw.ID,
		Role:      RoleOrDefault(raw.Role, RoleAssistant),
		Content:   raw.Content,
		Timestamp: time.Now().UTC(),
		Channel:   raw.Channel,
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("hist-%d", pos)
	}
	if msg.Content == "" {
		msg.Content = raw.Text
	}
	if raw.Timestamp > 0 {
		msg.Timestamp = time.UnixMilli(raw.Timestamp).UTC()
	}
	if len(raw.ToolCalls) > 0 {
		var calls []ToolCall
		if err := json.Unmarshal(raw.ToolCalls, &calls); err == nil {
			msg.ToolCalls = calls
		}
	}
	return msg
}

// Send appends the user's message optimistically, then asks the gateway to
// start a run. Each call mints a fresh idempotency key; retries are a new
// request as far as the gateway is concerned.
func (s *Session) Send(ctx context.Context, content string) {
	s.state.Append(NewUserMessage(content))
	s.state.SetSending(true)
	s.state.SetLastError("")

	ack, err := s.gw.Send(ctx, s.sessionKey, content, uuid.NewString())
	if err != nil {
		slog.Warn("send failed", "session_key", s.sessionKey, "error", err)
		s.state.SetLastError(err.Error())
		s.state.SetSending(false)
		return
	}
	if !ack.OK {
		msg := ack.Err
		if msg == "" {
			msg = "send rejected"
		}
		s.state.SetLastError(msg)
		s.state.SetSending(false)
		return
	}

	// The run can reach a terminal event before the ack lands. Adopting its
	// run id then would leave a stale active-run pointer.
	if ack.RunID != "" && s.state.Sending() {
		s.state.SetActiveRun(ack.RunID)
	}
}

// ClearHistory asks the gateway to drop the session's history. Best effort:
// the local transcript empties only after the gateway confirms, and failures
// are logged rather than surfaced.
func (s *Session) ClearHistory(ctx context.Context) {
	ack, err := s.gw.Clear(ctx, s.sessionKey)
	if err != nil {
		slog.Warn("history clear failed", "session_key", s.sessionKey, "error", err)
		return
	}
	if !ack.OK {
		slog.Warn("history clear rejected", "session_key", s.sessionKey, "error", ack.Err)
		return
	}
	s.state.ReplaceAll(nil)
}
