// Package ledger records the stylesheets, scripts and inline scripts a page
// render needs, so that they can be replayed onto the page's asset sink or
// persisted and replayed later when the page body is served from a cache.
package ledger

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	CSS      Kind = "css"
	JS       Kind = "js"
	InlineJS Kind = "inlinejs"
)

// Placement says where in the document a script goes. The zero value leaves
// the choice to the sink.
type Placement string

const (
	Default Placement = ""
	Top     Placement = "top"
	Bottom  Placement = "bottom"
)

// DefaultPriority is handed to the sink for entries recorded without a
// priority.
const DefaultPriority = 10

type Entry struct {
	Kind      Kind      `json:"kind"`
	Payload   string    `json:"payload"`
	Priority  *int      `json:"priority"`
	Placement Placement `json:"placement,omitempty"`
}

func (e Entry) priority() int {
	if e.Priority == nil {
		return DefaultPriority
	}
	return *e.Priority
}

// Sink accepts assets for the page currently being served.
type Sink interface {
	AddCSS(url string)
	AddJS(url string, priority int, deferred bool, integrity string, placement Placement)
	AddInlineJS(code string, priority int, placement Placement)
}

// Ledger is the ordered asset list of a single render pass. It is not safe
// for concurrent use; a pass owns its ledger until it is stored.
type Ledger struct {
	entries []Entry
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(e Entry) {
	l.entries = append(l.entries, e)
}

func (l *Ledger) AddCSS(url string) {
	l.Append(Entry{Kind: CSS, Payload: url})
}

func (l *Ledger) AddJS(url string, priority int, placement Placement) {
	l.Append(Entry{Kind: JS, Payload: url, Priority: &priority, Placement: placement})
}

func (l *Ledger) AddInlineJS(code string, priority int, placement Placement) {
	l.Append(Entry{Kind: InlineJS, Payload: code, Priority: &priority, Placement: placement})
}

// Reset drops every entry recorded so far.
func (l *Ledger) Reset() {
	l.entries = nil
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the recorded entries in ledger order.
func (l *Ledger) Entries() []Entry {
	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Materialize replays every entry onto sink in ledger order. CSS entries
// carry neither priority nor placement.
func (l *Ledger) Materialize(sink Sink) error {
	for i, e := range l.entries {
		switch e.Kind {
		case CSS:
			sink.AddCSS(e.Payload)
		case JS:
			sink.AddJS(e.Payload, e.priority(), false, "", e.Placement)
		case InlineJS:
			sink.AddInlineJS(e.Payload, e.priority(), e.Placement)
		default:
			return fmt.Errorf("ledger entry %d: unknown asset kind %q", i, e.Kind)
		}
	}
	return nil
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

func (l *Ledger) UnmarshalJSON(b []byte) error {
	var entries []Entry
	err := json.Unmarshal(b, &entries)
	if err != nil {
		return err
	}
	l.entries = entries
	return nil
}
