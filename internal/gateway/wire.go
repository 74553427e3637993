package gateway

import "encoding/json"

// Frame types multiplexed over the gateway socket.
const (
	frameRequest  = "req"
	frameResponse = "res"
	frameEvent    = "event"
)

// RPC methods the gateway serves.
const (
	MethodHistory = "chat.history"
	MethodSend    = "chat.send"
	MethodClear   = "chat.clear"
)

// EventChat names the push stream carrying run updates.
const EventChat = "chat"

// Run states carried by chat events. Anything else is ignored by consumers
// so newer gateways can add states without breaking old clients.
const (
	RunStateDelta   = "delta"
	RunStateFinal   = "final"
	RunStateError   = "error"
	RunStateAborted = "aborted"
)

// envelope is the single wire frame, discriminated by Type. Requests carry
// id/method/params, responses id/success/result/error, pushes event/payload.
type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func ackOK(env envelope) bool {
	return env.Success != nil && *env.Success
}

// ChatEvent is the payload of a "chat" push: one step of a run's lifecycle.
// Message is kept raw; the chat layer decides what, if anything, it means.
type ChatEvent struct {
	RunID        string          `json:"runId"`
	SessionKey   string          `json:"sessionKey"`
	Seq          int64           `json:"seq"`
	State        string          `json:"state"`
	Message      json.RawMessage `json:"message,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// RawMessage is a history record as the gateway stores it. Every field is
// optional; the chat layer defaults each one independently.
type RawMessage struct {
	ID        string          `json:"id,omitempty"`
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	Text      string          `json:"text,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	ToolCalls json.RawMessage `json:"toolCalls,omitempty"`
}

// HistoryAck is the outcome of chat.history. OK=false carries the gateway's
// rejection; transport failures surface as Go errors instead.
type HistoryAck struct {
	OK       bool
	Err      string
	Messages []RawMessage
}

// SendAck is the outcome of chat.send. RunID names the run the gateway
// started, when it reports one.
type SendAck struct {
	OK     bool
	Err    string
	RunID  string
	Status string
}

// ClearAck is the outcome of chat.clear.
type ClearAck struct {
	OK  bool
	Err string
}

type historyParams struct {
	SessionKey string `json:"sessionKey"`
	Limit      int    `json:"limit,omitempty"`
}

type historyResult struct {
	Messages []RawMessage `json:"messages"`
}

type sendParams struct {
	SessionKey     string `json:"sessionKey"`
	Message        string `json:"message"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type sendResult struct {
	RunID  string `json:"runId"`
	Status string `json:"status,omitempty"`
}

type clearParams struct {
	SessionKey string `json:"sessionKey"`
}
