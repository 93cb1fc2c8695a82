package socket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Engine.IO v4 packet types.
const (
	EngineOpen    byte = '0'
	EngineClose   byte = '1'
	EnginePing    byte = '2'
	EnginePong    byte = '3'
	EngineMessage byte = '4'
	EngineUpgrade byte = '5'
	EngineNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message.
const (
	SocketConnect      byte = '0'
	SocketDisconnect   byte = '1'
	SocketEvent        byte = '2'
	SocketAck          byte = '3'
	SocketConnectError byte = '4'
	SocketBinaryEvent  byte = '5'
	SocketBinaryAck    byte = '6'
)

var (
	errEmptyFrame  = errors.New("empty frame")
	errBinaryFrame = errors.New("binary packets are not supported")
)

// Packet is one decoded text frame.
type Packet struct {
	Engine    byte
	Socket    byte
	Namespace string
	AckID     int
	Data      json.RawMessage
}

// OpenPayload is the body of the Engine.IO open packet.
type OpenPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Decode parses a text frame.
func Decode(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return Packet{}, errEmptyFrame
	}
	p := Packet{Engine: frame[0], AckID: -1}
	rest := frame[1:]
	if p.Engine != EngineMessage {
		p.Data = rest
		return p, nil
	}
	if len(rest) == 0 {
		return Packet{}, fmt.Errorf("message frame without socket type")
	}
	p.Socket, rest = rest[0], rest[1:]
	if p.Socket == SocketBinaryEvent || p.Socket == SocketBinaryAck {
		return Packet{}, errBinaryFrame
	}

	if len(rest) > 0 && rest[0] == '/' {
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			p.Namespace, rest = string(rest[:i]), rest[i+1:]
		} else {
			p.Namespace, rest = string(rest), nil
		}
	}

	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j > 0 {
		p.AckID, _ = strconv.Atoi(string(rest[:j]))
		rest = rest[j:]
	}
	p.Data = rest
	return p, nil
}

// Event returns the name and arguments of an event packet.
func (p Packet) Event() (string, []json.RawMessage, error) {
	if p.Engine != EngineMessage || p.Socket != SocketEvent {
		return "", nil, fmt.Errorf("not an event packet")
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(p.Data, &parts); err != nil {
		return "", nil, fmt.Errorf("decode event: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("event without name")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	return name, parts[1:], nil
}

// ConnectError returns the message of a connect-error packet.
func (p Packet) ConnectError() string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(p.Data, &body) == nil && body.Message != "" {
		return body.Message
	}
	return string(p.Data)
}

// EncodeEvent builds a "42[...]" frame on the default namespace.
func EncodeEvent(name string, args ...any) ([]byte, error) {
	parts := make([]any, 0, len(args)+1)
	parts = append(parts, name)
	parts = append(parts, args...)
	data, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", name, err)
	}
	return append([]byte{EngineMessage, SocketEvent}, data...), nil
}

// Frames for the fixed control packets.
var (
	framePong    = []byte{EnginePong}
	frameConnect = []byte{EngineMessage, SocketConnect}
	frameLeave   = []byte{EngineMessage, SocketDisconnect}
)

// Endpoint turns an http(s) base URL into the websocket transport URL.
func Endpoint(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("socket url %q has no host", base)
	}
	u.Path = "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}
