package reconcile

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/mianjunaid1223/Collab-Studio/internal/realtime"
	"golang.org/x/net/websocket"
)

// WSChannel is a live session with the realtime gateway.
type WSChannel struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WSURL turns an API base URL into the gateway URL.
func WSURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws"
	return u.String(), nil
}

// DialWS opens a gateway session authenticated with an author token.
func DialWS(ctx context.Context, baseURL, token string) (*WSChannel, error) {
	wsURL, err := WSURL(baseURL)
	if err != nil {
		return nil, err
	}
	cfg, err := websocket.NewConfig(wsURL, baseURL)
	if err != nil {
		return nil, err
	}
	cfg.Header.Set("Authorization", "Bearer "+token)

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &WSChannel{conn: conn}, nil
}

func (c *WSChannel) Send(f realtime.Frame) error {
	raw, err := sonic.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.Message.Send(c.conn, string(raw))
}

func (c *WSChannel) Receive() (realtime.Frame, error) {
	var raw []byte
	if err := websocket.Message.Receive(c.conn, &raw); err != nil {
		return realtime.Frame{}, err
	}
	var f realtime.Frame
	if err := sonic.Unmarshal(raw, &f); err != nil {
		return realtime.Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func (c *WSChannel) Close() error {
	return c.conn.Close()
}
