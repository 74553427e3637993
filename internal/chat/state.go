package chat

import "sync"

// State is the single source of truth the UI renders: the ordered transcript
// plus session-level flags. All mutation goes through its methods; the mutex
// serializes the REPL goroutine and the event pump so every operation runs to
// completion before the next begins. Subscribers are notified synchronously
// after each mutation, outside the lock.
type State struct {
	mu        sync.Mutex
	messages  []Message
	index     map[string]int
	loading   bool
	sending   bool
	lastError string
	activeRun string
	subs      map[int]func()
	nextSub   int
}

// Snapshot is a consistent copy of everything a renderer needs.
type Snapshot struct {
	Messages  []Message
	Loading   bool
	Sending   bool
	LastError string
	ActiveRun string
}

func NewState() *State {
	return &State{
		index: make(map[string]int),
		subs:  make(map[int]func()),
	}
}

// Subscribe registers fn to run after every mutation. The returned cancel
// removes the subscription.
func (s *State) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *State) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Append adds msg to the end of the transcript. ID uniqueness is the caller's
// contract; the store does not check it.
func (s *State) Append(msg Message) {
	s.mu.Lock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// Patch merges patch into the message with the given ID. It reports false,
// mutating nothing, when the ID is absent.
func (s *State) Patch(id string, patch MessagePatch) bool {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	msg := &s.messages[i]
	if patch.Content != nil {
		msg.Content = *patch.Content
	}
	if patch.Channel != nil {
		msg.Channel = *patch.Channel
	}
	if patch.ToolCalls != nil {
		msg.ToolCalls = append([]ToolCall(nil), patch.ToolCalls...)
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// ReplaceAll swaps the whole transcript, as after a history load or clear.
func (s *State) ReplaceAll(msgs []Message) {
	s.mu.Lock()
	s.messages = append([]Message(nil), msgs...)
	s.index = make(map[string]int, len(msgs))
	for i, m := range s.messages {
		s.index[m.ID] = i
	}
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy of the transcript in insertion order.
func (s *State) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Message returns the message with the given ID, if present.
func (s *State) Message(id string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[i], true
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Snapshot returns a consistent copy of transcript and flags.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		Messages:  msgs,
		Loading:   s.loading,
		Sending:   s.sending,
		LastError: s.lastError,
		ActiveRun: s.activeRun,
	}
}

func (s *State) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *State) SetSending(v bool) {
	s.mu.Lock()
	s.sending = v
	s.mu.Unlock()
	s.notify()
}

func (s *State) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// SetLastError records the error the UI shows. Empty string means none.
func (s *State) SetLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
	s.notify()
}

func (s *State) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SetActiveRun records the run whose completion the session is waiting on.
func (s *State) SetActiveRun(runID string) {
	s.mu.Lock()
	s.activeRun = runID
	s.mu.Unlock()
	s.notify()
}

func (s *State) ClearActiveRun() {
	s.mu.Lock()
	s.activeRun = ""
	s.mu.Unlock()
	s.notify()
}

func (s *State) ActiveRun() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRun, s.activeRun != ""
}
