package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/bit-cook/ClawX/internal/chat"
)

const clearLine = "\r\033[2K"

// Styles bundles the lipgloss styles the printer renders with.
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Error     lipgloss.Style
	Notice    lipgloss.Style
	Prompt    string
}

func DefaultStyles() Styles {
	return Styles{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		System:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Prompt:    "> ",
	}
}

// Printer turns transcript snapshots into terminal output. It is driven by
// the store subscription, so it may be called from both the REPL goroutine
// and the event pump; a mutex serializes writes.
//
// Streaming works by remembering what was last rendered per message ID: when
// a message merely grew, only the suffix is written, keeping the text flowing
// on one line. A message whose content changed any other way (an
// authoritative final replacing streamed deltas) is reprinted in full.
type Printer struct {
	mu          sync.Mutex
	out         io.Writer
	styles      Styles
	rendered    map[string]string
	open        string
	promptShown bool
	lastErr     string
}

func NewPrinter(out io.Writer, styles Styles) *Printer {
	return &Printer{
		out:      out,
		styles:   styles,
		rendered: make(map[string]string),
	}
}

// Update folds a snapshot into the terminal. User messages are tracked but
// never rendered live; the typed line is already on screen. A transcript
// whose known IDs vanished was replaced wholesale (history reload, clear), in
// which case the printer resynchronizes silently and lets the caller decide
// what to show.
func (p *Printer) Update(snap chat.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transcriptReplaced(snap) {
		p.resync(snap)
	}

	for _, msg := range snap.Messages {
		prev, seen := p.rendered[msg.ID]
		switch {
		case !seen:
			if msg.Role == chat.RoleUser {
				p.rendered[msg.ID] = msg.Content
				continue
			}
			p.printFull(msg)
		case msg.Content == prev:
		case strings.HasPrefix(msg.Content, prev) && p.open == msg.ID:
			fmt.Fprint(p.out, p.styleFor(msg.Role).Render(msg.Content[len(prev):]))
			p.rendered[msg.ID] = msg.Content
		default:
			p.printFull(msg)
		}
	}

	if snap.LastError != p.lastErr {
		p.lastErr = snap.LastError
		if snap.LastError != "" {
			p.breakLine()
			fmt.Fprintln(p.out, p.styles.Error.Render("error: "+snap.LastError))
		}
	}
}

// DumpAll lists the whole transcript, one labeled line per message, and marks
// everything as rendered.
func (p *Printer) DumpAll(snap chat.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.breakLine()
	for _, msg := range snap.Messages {
		fmt.Fprintln(p.out, p.label(msg.Role)+p.styleFor(msg.Role).Render(msg.Content))
		for _, tc := range msg.ToolCalls {
			fmt.Fprintln(p.out, p.styles.System.Render("  tool "+tc.Name+" ["+string(tc.Status)+"]"))
		}
		p.rendered[msg.ID] = msg.Content
	}
	p.lastErr = snap.LastError
	if snap.LastError != "" {
		fmt.Fprintln(p.out, p.styles.Error.Render("error: "+snap.LastError))
	}
}

// Notice prints one informational line, closing any streaming line first.
func (p *Printer) Notice(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakLine()
	fmt.Fprintln(p.out, p.styles.Notice.Render(text))
}

// ShowPrompt closes any open line and prints the input prompt.
func (p *Printer) ShowPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open != "" {
		fmt.Fprintln(p.out)
		p.open = ""
	}
	fmt.Fprint(p.out, p.styles.Prompt)
	p.promptShown = true
}

// HidePrompt records that the prompt line ended (the user pressed enter).
// It writes nothing.
func (p *Printer) HidePrompt() {
	p.mu.Lock()
	p.promptShown = false
	p.mu.Unlock()
}

func (p *Printer) transcriptReplaced(snap chat.Snapshot) bool {
	if len(p.rendered) == 0 {
		return false
	}
	current := make(map[string]struct{}, len(snap.Messages))
	for _, m := range snap.Messages {
		current[m.ID] = struct{}{}
	}
	for id := range p.rendered {
		if _, ok := current[id]; !ok {
			return true
		}
	}
	return false
}

func (p *Printer) resync(snap chat.Snapshot) {
	if p.open != "" {
		fmt.Fprintln(p.out)
		p.open = ""
	}
	p.rendered = make(map[string]string, len(snap.Messages))
	for _, m := range snap.Messages {
		p.rendered[m.ID] = m.Content
	}
}

// breakLine gets the cursor to the start of an empty line: clearing a shown
// prompt, or terminating a streaming line.
func (p *Printer) breakLine() {
	if p.promptShown {
		fmt.Fprint(p.out, clearLine)
		p.promptShown = false
	} else if p.open != "" {
		fmt.Fprintln(p.out)
	}
	p.open = ""
}

func (p *Printer) printFull(msg chat.Message) {
	p.breakLine()
	fmt.Fprint(p.out, p.label(msg.Role))
	fmt.Fprint(p.out, p.styleFor(msg.Role).Render(msg.Content))
	p.rendered[msg.ID] = msg.Content
	p.open = msg.ID
}

func (p *Printer) label(role chat.Role) string {
	name := string(role)
	switch role {
	case chat.RoleUser:
		name = "you"
	case chat.RoleAssistant:
		name = "clawx"
	}
	return p.styleFor(role).Bold(true).Render(name+":") + " "
}

func (p *Printer) styleFor(role chat.Role) lipgloss.Style {
	switch role {
	case chat.RoleUser:
		return p.styles.User
	case chat.RoleSystem:
		return p.styles.System
	default:
		return p.styles.Assistant
	}
}
