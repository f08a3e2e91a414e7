package hub

import (
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// MessageType names the kind of payload pushed to viewers.
type MessageType string

const (
	// TypeAppend carries rendered markup to append to the viewer's display.
	TypeAppend MessageType = "append"
	// TypeError reports that the tailed file can no longer be read.
	TypeError MessageType = "error"
)

// Message is one push to a viewer.
type Message struct {
	Type MessageType `json:"type"`
	HTML string      `json:"html"`
}

var (
	// ErrViewerClosed is returned by Deliver after the viewer went away.
	ErrViewerClosed = errors.New("viewer closed")
	// ErrViewerBehind is returned by Deliver when the viewer's queue is full.
	ErrViewerBehind = errors.New("viewer queue full")
)

// Viewer is one connected consumer. Deliver must not block: implementations
// enqueue the message or fail.
type Viewer interface {
	ID() string
	Deliver(Message) error
}

// EventKind classifies membership changes.
type EventKind int

const (
	EventRegistered EventKind = iota
	EventUnregistered
	EventDropped
)

func (k EventKind) String() string {
	switch k {
	case EventRegistered:
		return "registered"
	case EventUnregistered:
		return "unregistered"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event describes a membership change. Viewers is the set size afterwards.
type Event struct {
	Kind     EventKind
	ViewerID string
	Viewers  int
	Err      error
}

// Hub fans messages out to the registered viewers.
type Hub struct {
	log logrus.FieldLogger

	mu        sync.Mutex
	viewers   map[Viewer]struct{}
	observers []func(Event)

	// pubMu keeps each viewer's messages in publish order.
	pubMu sync.Mutex
}

// New returns an empty Hub. A nil logger discards output.
func New(log logrus.FieldLogger) *Hub {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Hub{
		log:     log,
		viewers: make(map[Viewer]struct{}),
	}
}

// Subscribe registers fn to be called after every membership change. fn runs
// on the goroutine that caused the change and must not call back into the Hub.
func (h *Hub) Subscribe(fn func(Event)) {
	h.mu.Lock()
	h.observers = append(h.observers, fn)
	h.mu.Unlock()
}

// Register adds v. Registering a viewer twice is a no-op.
func (h *Hub) Register(v Viewer) {
	h.mu.Lock()
	if _, ok := h.viewers[v]; ok {
		h.mu.Unlock()
		return
	}
	h.viewers[v] = struct{}{}
	ev := Event{Kind: EventRegistered, ViewerID: v.ID(), Viewers: len(h.viewers)}
	observers := h.observers
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"viewer": ev.ViewerID, "viewers": ev.Viewers}).Debug("viewer registered")
	notify(observers, ev)
}

// Unregister removes v. It is safe to call for a viewer that is not present.
func (h *Hub) Unregister(v Viewer) {
	h.remove(v, EventUnregistered, nil)
}

// Len returns the number of registered viewers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Publish delivers msg to every registered viewer and returns how many
// accepted it. Viewers whose delivery fails are removed; the others still
// receive the message.
func (h *Hub) Publish(msg Message) int {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	targets := make([]Viewer, 0, len(h.viewers))
	for v := range h.viewers {
		targets = append(targets, v)
	}
	h.mu.Unlock()

	delivered := 0
	for _, v := range targets {
		if err := v.Deliver(msg); err != nil {
			h.remove(v, EventDropped, err)
			continue
		}
		delivered++
	}
	return delivered
}

// Fail tells every viewer the source is gone.
func (h *Hub) Fail(html string) int {
	return h.Publish(Message{Type: TypeError, HTML: html})
}

func (h *Hub) remove(v Viewer, kind EventKind, cause error) {
	h.mu.Lock()
	if _, ok := h.viewers[v]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.viewers, v)
	ev := Event{Kind: kind, ViewerID: v.ID(), Viewers: len(h.viewers), Err: cause}
	observers := h.observers
	h.mu.Unlock()

	entry := h.log.WithFields(logrus.Fields{"viewer": ev.ViewerID, "viewers": ev.Viewers})
	if cause != nil {
		entry.WithError(cause).Warn("viewer dropped")
	} else {
		entry.Debug("viewer unregistered")
	}
	notify(observers, ev)
}

func notify(observers []func(Event), ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}
