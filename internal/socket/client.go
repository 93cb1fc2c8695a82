package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errServerClosed = errors.New("server closed the connection")

// client is one established Socket.IO session on the default namespace.
type client struct {
	conn Conn
	open OpenPayload

	closeOnce sync.Once
}

// handshake dials endpoint and completes the Engine.IO open and Socket.IO
// connect exchange.
func handshake(ctx context.Context, dialer Dialer, endpoint string, timeout time.Duration) (*client, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := dialer.Dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	c := &client{conn: conn}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	if err := c.await(ctx); err != nil {
		c.close()
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})
	return c, nil
}

func (c *client) await(ctx context.Context) error {
	frame, err := c.conn.ReadMessage()
	if err != nil {
		return c.ctxErr(ctx, fmt.Errorf("read open: %w", err))
	}
	p, err := Decode(frame)
	if err != nil {
		return err
	}
	if p.Engine != EngineOpen {
		return fmt.Errorf("expected open packet, got %q", frame)
	}
	if err := json.Unmarshal(p.Data, &c.open); err != nil {
		return fmt.Errorf("decode open: %w", err)
	}

	if err := c.conn.WriteMessage(frameConnect); err != nil {
		return fmt.Errorf("send connect: %w", err)
	}

	for {
		frame, err := c.conn.ReadMessage()
		if err != nil {
			return c.ctxErr(ctx, fmt.Errorf("read connect: %w", err))
		}
		p, err := Decode(frame)
		if err != nil {
			continue
		}
		switch {
		case p.Engine == EnginePing:
			if err := c.conn.WriteMessage(framePong); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}
		case p.Engine == EngineClose:
			return errServerClosed
		case p.Engine == EngineMessage && p.Socket == SocketConnect:
			return nil
		case p.Engine == EngineMessage && p.Socket == SocketConnectError:
			return fmt.Errorf("connect rejected: %s", p.ConnectError())
		}
	}
}

func (c *client) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// keepalive returns how long to wait for the next server ping.
func (c *client) keepalive() time.Duration {
	if c.open.PingInterval <= 0 {
		return 0
	}
	return time.Duration(c.open.PingInterval+c.open.PingTimeout) * time.Millisecond
}

func (c *client) emit(event string, args ...any) error {
	frame, err := EncodeEvent(event, args...)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(frame)
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.conn.WriteMessage(frameLeave)
		c.conn.Close()
	})
}
