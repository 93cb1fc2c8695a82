// Package socket maintains the portal's live event channel: a single
// Socket.IO connection with bounded reconnection and role-based rooms.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jamalpur-chamber/chamber/internal/logging"
)

// Outbound room events.
const (
	EventJoinAdmin = "join-admin"
	EventJoinUser  = "join-user"
)

var (
	// ErrDisabled is returned by Emit when the live channel is off.
	ErrDisabled = errors.New("live channel disabled")
	// ErrNotConnected is returned by Emit while no connection is up.
	ErrNotConnected = errors.New("not connected")

	errDropped = errors.New("connection dropped")
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateFailed is terminal until Reconnect is called.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Handler receives the first argument of an inbound event.
type Handler func(payload json.RawMessage)

// Options configures a Manager.
type Options struct {
	URL               string
	Enabled           bool
	ReconnectDelay    time.Duration
	ReconnectAttempts int
	ConnectTimeout    time.Duration
	Dialer            Dialer
	Logger            *slog.Logger
}

// DefaultOptions returns the stock reconnection policy.
func DefaultOptions(url string) Options {
	return Options{
		URL:               url,
		Enabled:           true,
		ReconnectDelay:    time.Second,
		ReconnectAttempts: 5,
		ConnectTimeout:    30 * time.Second,
	}
}

// Manager owns the live connection.
type Manager struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	state     State
	admin     bool
	client    *client
	handlers  map[string]map[uint64]Handler
	listeners map[uint64]func(State)
	nextID    uint64
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewManager creates a manager. Nothing connects until Start.
func NewManager(opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	return &Manager{
		opts:      opts,
		log:       logging.OrDiscard(opts.Logger),
		handlers:  make(map[string]map[uint64]Handler),
		listeners: make(map[uint64]func(State)),
	}
}

// Enabled reports whether the live channel is configured on.
func (m *Manager) Enabled() bool {
	return m.opts.Enabled
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the state is Connected.
func (m *Manager) Connected() bool {
	return m.State() == StateConnected
}

// Start launches the connection loop. It is a no-op when disabled or already
// running.
func (m *Manager) Start(ctx context.Context) {
	if !m.opts.Enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx, m.done)
}

// Reconnect restarts the loop after it settled in StateFailed.
func (m *Manager) Reconnect(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateFailed {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	m.Start(ctx)
}

// Close stops the loop, closes the transport and drops every handler and
// listener. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	m.mu.Lock()
	m.handlers = make(map[string]map[uint64]Handler)
	m.listeners = make(map[uint64]func(State))
	m.state = StateDisconnected
	m.mu.Unlock()
	return nil
}

// SetAdmin records the caller's role. A change while connected re-joins the
// matching room on the same connection.
func (m *Manager) SetAdmin(admin bool) {
	m.mu.Lock()
	changed := m.admin != admin
	m.admin = admin
	connected := m.state == StateConnected
	m.mu.Unlock()

	if changed && connected {
		m.join()
	}
}

// On subscribes h to event and returns its disposer.
func (m *Manager) On(event string, h Handler) (off func()) {
	if !m.opts.Enabled {
		return func() {}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[uint64]Handler)
	}
	m.handlers[event][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.handlers[event], id)
		})
	}
}

// OnStateChange subscribes fn to state transitions and returns its disposer.
func (m *Manager) OnStateChange(fn func(State)) (off func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners, id)
		})
	}
}

// Emit sends an event on the live connection.
func (m *Manager) Emit(event string, args ...any) error {
	if !m.opts.Enabled {
		return ErrDisabled
	}
	m.mu.Lock()
	c := m.client
	connected := m.state == StateConnected
	m.mu.Unlock()
	if c == nil || !connected {
		return ErrNotConnected
	}
	return c.emit(event, args...)
}

func (m *Manager) join() {
	m.mu.Lock()
	room := EventJoinUser
	if m.admin {
		room = EventJoinAdmin
	}
	m.mu.Unlock()
	if err := m.Emit(room); err != nil {
		m.log.Warn("join room", "room", room, "err", err)
		return
	}
	m.log.Debug("joined room", "room", room)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	listeners := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	m.log.Debug("live channel state", "state", s.String())
	for _, fn := range listeners {
		fn(s)
	}
}

func (m *Manager) dispatch(event string, payload json.RawMessage) {
	m.mu.Lock()
	hs := make([]Handler, 0, len(m.handlers[event]))
	for _, h := range m.handlers[event] {
		hs = append(hs, h)
	}
	m.mu.Unlock()

	for _, h := range hs {
		h(payload)
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	endpoint, err := Endpoint(m.opts.URL)
	if err != nil {
		m.log.Error("live channel url", "err", err)
		m.setState(StateFailed)
		return
	}

	c, err := m.dial(ctx, endpoint)
	for {
		if err != nil {
			c, err = m.retry(ctx, endpoint)
			if err != nil {
				if ctx.Err() != nil {
					m.setState(StateDisconnected)
				} else {
					m.log.Error("live channel reconnection failed", "attempts", m.opts.ReconnectAttempts, "err", err)
					m.setState(StateFailed)
				}
				return
			}
		}

		readErr := m.serve(ctx, c)
		if ctx.Err() != nil {
			return
		}
		m.log.Warn("live channel lost", "err", readErr)
		err = errDropped
	}
}

func (m *Manager) dial(ctx context.Context, endpoint string) (*client, error) {
	m.setState(StateConnecting)
	c, err := handshake(ctx, m.opts.Dialer, endpoint, m.opts.ConnectTimeout)
	if err != nil {
		m.log.Debug("live channel connect failed", "err", err)
		m.setState(StateDisconnected)
		return nil, err
	}
	return c, nil
}

// retry waits the reconnect delay, then makes up to ReconnectAttempts dials
// at that constant delay.
func (m *Manager) retry(ctx context.Context, endpoint string) (*client, error) {
	if m.opts.ReconnectAttempts <= 0 {
		return nil, errDropped
	}

	timer := time.NewTimer(m.opts.ReconnectDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	attempt := 0
	op := func() (*client, error) {
		attempt++
		m.log.Info("live channel reconnecting", "attempt", attempt)
		c, err := m.dial(ctx, endpoint)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return c, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(m.opts.ReconnectDelay)),
		backoff.WithMaxTries(uint(m.opts.ReconnectAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
}

// serve runs one connected session until the transport drops or ctx ends.
func (m *Manager) serve(ctx context.Context, c *client) error {
	stop := context.AfterFunc(ctx, c.close)
	defer stop()
	defer c.close()

	m.mu.Lock()
	m.client = c
	m.mu.Unlock()

	m.setState(StateConnected)
	m.join()

	err := m.readLoop(c)

	m.mu.Lock()
	m.client = nil
	m.mu.Unlock()
	m.setState(StateDisconnected)
	return err
}

func (m *Manager) readLoop(c *client) error {
	for {
		if wait := c.keepalive(); wait > 0 {
			c.conn.SetReadDeadline(time.Now().Add(wait))
		}
		frame, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		p, err := Decode(frame)
		if err != nil {
			m.log.Debug("skip frame", "err", err)
			continue
		}

		switch p.Engine {
		case EnginePing:
			if err := c.conn.WriteMessage(framePong); err != nil {
				return err
			}
		case EngineClose:
			return errServerClosed
		case EngineMessage:
			switch p.Socket {
			case SocketEvent:
				name, args, err := p.Event()
				if err != nil {
					m.log.Debug("skip event", "err", err)
					continue
				}
				var payload json.RawMessage
				if len(args) > 0 {
					payload = args[0]
				}
				m.dispatch(name, payload)
			case SocketDisconnect:
				return errServerClosed
			}
		}
	}
}
