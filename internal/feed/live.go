package feed

import (
	"log/slog"
	"sync"

	"github.com/jamalpur-chamber/chamber/internal/socket"
)

// Inbound live events.
const (
	EventNewsCreated  = "news-created"
	EventNewsUpdated  = "news-updated"
	EventNewsDeleted  = "news-deleted"
	EventImageCreated = "gallery-image-created"
	EventImageUpdated = "gallery-image-updated"
	EventImageDeleted = "gallery-image-deleted"
)

// Events is the live channel as seen by the feeds. *socket.Manager
// satisfies it.
type Events interface {
	On(event string, h socket.Handler) (off func())
	OnStateChange(fn func(socket.State)) (off func())
	Connected() bool
}

type binding struct {
	event   string
	handler socket.Handler
}

// live holds event handlers only while the channel is connected.
type live struct {
	events   Events
	bindings []binding
	log      *slog.Logger

	mu       sync.Mutex
	offs     []func()
	offState func()
	closed   bool
}

func (l *live) start() {
	if l.events == nil {
		return
	}
	off := l.events.OnStateChange(func(s socket.State) {
		if s == socket.StateConnected {
			l.attach()
		} else {
			l.detach()
		}
	})
	l.mu.Lock()
	l.offState = off
	l.mu.Unlock()

	if l.events.Connected() {
		l.attach()
	}
}

func (l *live) attach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.offs != nil {
		return
	}
	l.offs = make([]func(), 0, len(l.bindings))
	for _, b := range l.bindings {
		l.offs = append(l.offs, l.events.On(b.event, b.handler))
	}
	l.log.Debug("feed handlers attached", "count", len(l.offs))
}

func (l *live) detach() {
	l.mu.Lock()
	offs := l.offs
	l.offs = nil
	l.mu.Unlock()
	for _, off := range offs {
		off()
	}
}

func (l *live) attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offs != nil
}

func (l *live) close() {
	l.mu.Lock()
	l.closed = true
	offState := l.offState
	l.offState = nil
	l.mu.Unlock()
	if offState != nil {
		offState()
	}
	l.detach()
}
