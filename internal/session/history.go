package session

import (
	"sync"

	"github.com/google/uuid"
)

// Service names used on history entries
const (
	ServiceModel  = "model"
	ServiceSearch = "search"
)

// Entry is one recorded call in a session
type Entry struct {
	ID       string       `json:"id" yaml:"id"`
	Service  string       `json:"service" yaml:"service"`
	Query    string       `json:"query" yaml:"query"`
	Request  RequestLog   `json:"request" yaml:"request"`
	Response *ResponseLog `json:"response,omitempty" yaml:"response,omitempty"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// History is an append-only, in-memory call log owned by one client.
// It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []Entry
}

// NewHistory creates an empty History
func NewHistory() *History {
	return &History{}
}

// Append records an entry and returns it with its ID assigned
func (h *History) Append(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
	return e
}

// Entries returns a snapshot of all entries in append order
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Last returns the most recent entry
func (h *History) Last() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len returns the number of entries
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear drops every entry
func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
