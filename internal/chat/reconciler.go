package chat

import (
	"log/slog"
	"time"

	"github.com/bit-cook/ClawX/internal/gateway"
)

// defaultRunError is shown when an error event carries no message of its own.
const defaultRunError = "An error occurred"

// runState is the per-run bookkeeping. Presence in the map means the run is
// still streaming; terminal events remove the entry.
type runState struct {
	lastSeq int64
}

// Reconciler folds gateway push events into the transcript. All events of a
// run collapse onto one assistant message keyed by RunMessageID, which makes
// redelivered and replayed events idempotent.
type Reconciler struct {
	state *State
	runs  map[string]*runState
}

func NewReconciler(state *State) *Reconciler {
	return &Reconciler{
		state: state,
		runs:  make(map[string]*runState),
	}
}

// OnEvent applies one push event. The event pump delivers events one at a
// time; OnEvent is not safe for concurrent use.
func (r *Reconciler) OnEvent(ev gateway.ChatEvent) {
	if ev.RunID == "" {
		slog.Debug("chat event without run id dropped", "state", ev.State)
		return
	}

	switch ev.State {
	case gateway.RunStateDelta, gateway.RunStateFinal, gateway.RunStateError, gateway.RunStateAborted:
	default:
		slog.Debug("unknown run state ignored", "run_id", ev.RunID, "state", ev.State)
		return
	}

	rs, ok := r.runs[ev.RunID]
	if !ok {
		rs = &runState{}
		r.runs[ev.RunID] = rs
	}

	// Sequence numbers are monotonic per run when present. A seq at or below
	// the watermark is a duplicate or out-of-order delivery.
	if ev.Seq > 0 && rs.lastSeq > 0 && ev.Seq <= rs.lastSeq {
		slog.Debug("stale run event dropped", "run_id", ev.RunID, "seq", ev.Seq, "last_seq", rs.lastSeq)
		return
	}
	if ev.Seq > 0 {
		rs.lastSeq = ev.Seq
	}

	switch ev.State {
	case gateway.RunStateDelta:
		r.applyDelta(ev)
	case gateway.RunStateFinal:
		r.applyFinal(ev)
		r.finish(ev.RunID)
	case gateway.RunStateError:
		msg := ev.ErrorMessage
		if msg == "" {
			msg = defaultRunError
		}
		r.state.SetLastError(msg)
		r.finish(ev.RunID)
	case gateway.RunStateAborted:
		r.finish(ev.RunID)
	}
}

// applyDelta appends extracted text to the run's message, creating it on the
// first delta that carries any text.
func (r *Reconciler) applyDelta(ev gateway.ChatEvent) {
	id := RunMessageID(ev.RunID)
	text := payloadText(ev.Message)

	if existing, ok := r.state.Message(id); ok {
		content := existing.Content + text
		r.state.Patch(id, MessagePatch{Content: &content})
		return
	}
	if text == "" {
		return
	}
	r.state.Append(Message{
		ID:        id,
		Role:      RoleAssistant,
		Content:   text,
		Timestamp: time.Now().UTC(),
	})
}

// applyFinal replaces the run message's content with the authoritative text,
// discarding whatever the deltas accumulated.
func (r *Reconciler) applyFinal(ev gateway.ChatEvent) {
	id := RunMessageID(ev.RunID)
	text := finalPayloadText(ev.Message)

	if _, ok := r.state.Message(id); ok {
		r.state.Patch(id, MessagePatch{Content: &text})
		return
	}
	if text == "" {
		return
	}
	r.state.Append(Message{
		ID:        id,
		Role:      RoleAssistant,
		Content:   text,
		Timestamp: time.Now().UTC(),
	})
}

// finish drops the run's bookkeeping and releases the session flags. Terminal
// events win even when the send ack never nominated this run.
func (r *Reconciler) finish(runID string) {
	delete(r.runs, runID)
	r.state.SetSending(false)
	r.state.ClearActiveRun()
}
