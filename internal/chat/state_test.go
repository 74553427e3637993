package chat

import (
	"testing"
	"time"
)

func testMessage(id, content string) Message {
	return Message{
		ID:        id,
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func TestState_AppendAndLookup(t *testing.T) {
	state := NewState()

	state.Append(testMessage("m1", "first"))
	state.Append(testMessage("m2", "second"))

	if state.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", state.Len())
	}

	msg, ok := state.Message("m1")
	if !ok {
		t.Fatal("Message(m1) not found after append")
	}
	if msg.Content != "first" {
		t.Errorf("Content: got %q, want %q", msg.Content, "first")
	}

	msgs := state.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages length: got %d, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("Insertion order not preserved: got [%s %s]", msgs[0].ID, msgs[1].ID)
	}
}

func TestState_PatchContent(t *testing.T) {
	state := NewState()
	msg := testMessage("m1", "hello")
	msg.Channel = "general"
	state.Append(msg)

	content := "hello world"
	if !state.Patch("m1", MessagePatch{Content: &content}) {
		t.Fatal("Patch returned false for existing id")
	}

	got, _ := state.Message("m1")
	if got.Content != "hello world" {
		t.Errorf("Content: got %q, want %q", got.Content, "hello world")
	}
	if got.Channel != "general" {
		t.Errorf("Patch touched unpatched field Channel: got %q", got.Channel)
	}
	if got.Role != RoleAssistant {
		t.Errorf("Patch touched unpatched field Role: got %q", got.Role)
	}
}

func TestState_PatchToolCalls(t *testing.T) {
	state := NewState()
	state.Append(testMessage("m1", "working"))

	calls := []ToolCall{{ID: "t1", Name: "search", Status: ToolCallRunning}}
	state.Patch("m1", MessagePatch{ToolCalls: calls})

	// Mutating the caller's slice must not leak into the store.
	calls[0].Status = ToolCallError

	got, _ := state.Message("m1")
	if len(got.ToolCalls) != 1 {
		t.Fatalf("ToolCalls length: got %d, want 1", len(got.ToolCalls))
	}
	if got.ToolCalls[0].Status != ToolCallRunning {
		t.Errorf("ToolCalls not copied on patch: got status %q", got.ToolCalls[0].Status)
	}
}

func TestState_PatchMissingID(t *testing.T) {
	state := NewState()
	state.Append(testMessage("m1", "hello"))

	content := "changed"
	if state.Patch("nope", MessagePatch{Content: &content}) {
		t.Fatal("Patch returned true for missing id")
	}

	got, _ := state.Message("m1")
	if got.Content != "hello" {
		t.Errorf("Patch of missing id mutated transcript: got %q", got.Content)
	}
}

func TestState_ReplaceAll(t *testing.T) {
	state := NewState()
	state.Append(testMessage("old", "stale"))

	state.ReplaceAll([]Message{testMessage("n1", "one"), testMessage("n2", "two")})

	if state.Len() != 2 {
		t.Fatalf("Len after replace: got %d, want 2", state.Len())
	}
	if _, ok := state.Message("old"); ok {
		t.Error("Replaced message still reachable by id")
	}

	content := "two!"
	if !state.Patch("n2", MessagePatch{Content: &content}) {
		t.Error("Patch by id failed after ReplaceAll reindex")
	}

	state.ReplaceAll(nil)
	if state.Len() != 0 {
		t.Errorf("Len after ReplaceAll(nil): got %d, want 0", state.Len())
	}
}

func TestState_SubscribeNotify(t *testing.T) {
	state := NewState()

	notified := 0
	cancel := state.Subscribe(func() { notified++ })

	state.Append(testMessage("m1", "hello"))
	if notified != 1 {
		t.Fatalf("Notifications after append: got %d, want 1", notified)
	}

	state.SetSending(true)
	state.SetLastError("boom")
	if notified != 3 {
		t.Fatalf("Notifications after flag changes: got %d, want 3", notified)
	}

	cancel()
	state.Append(testMessage("m2", "bye"))
	if notified != 3 {
		t.Errorf("Cancelled subscriber still notified: got %d", notified)
	}
}

func TestState_SubscriberSeesMutation(t *testing.T) {
	state := NewState()

	var seen int
	state.Subscribe(func() { seen = state.Len() })

	state.Append(testMessage("m1", "hello"))
	if seen != 1 {
		t.Errorf("Subscriber ran before mutation was visible: saw %d messages", seen)
	}
}

func TestState_SnapshotCopies(t *testing.T) {
	state := NewState()
	state.Append(testMessage("m1", "hello"))
	state.SetSending(true)
	state.SetActiveRun("r1")

	snap := state.Snapshot()
	if !snap.Sending || snap.ActiveRun != "r1" {
		t.Fatalf("Snapshot flags: got sending=%v run=%q", snap.Sending, snap.ActiveRun)
	}

	snap.Messages[0].Content = "tampered"
	got, _ := state.Message("m1")
	if got.Content != "hello" {
		t.Error("Mutating a snapshot leaked into the store")
	}
}

func TestState_Flags(t *testing.T) {
	state := NewState()

	state.SetLoading(true)
	if !state.Loading() {
		t.Error("Loading flag not set")
	}
	state.SetLoading(false)
	if state.Loading() {
		t.Error("Loading flag not cleared")
	}

	state.SetLastError("bad")
	if state.LastError() != "bad" {
		t.Errorf("LastError: got %q, want %q", state.LastError(), "bad")
	}
	state.SetLastError("")
	if state.LastError() != "" {
		t.Error("LastError not cleared")
	}

	if _, ok := state.ActiveRun(); ok {
		t.Error("ActiveRun set on fresh state")
	}
	state.SetActiveRun("r1")
	run, ok := state.ActiveRun()
	if !ok || run != "r1" {
		t.Errorf("ActiveRun: got %q %v, want r1 true", run, ok)
	}
	state.ClearActiveRun()
	if _, ok := state.ActiveRun(); ok {
		t.Error("ActiveRun not cleared")
	}
}
