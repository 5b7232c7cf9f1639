// Package realtime is a minimal client for the OpenAI Realtime API over
// WebSocket. It exposes the handful of client events the voice assistant
// sends and decodes server events into a tagged ServerEvent at the wire
// boundary.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// DefaultWebSocketURL is the default realtime endpoint.
const DefaultWebSocketURL = "wss://api.openai.com/v1/realtime"

// readLimit must fit a full audio response delta; the websocket default
// of 32 KiB does not.
const readLimit = 16 << 20

// Client dials realtime sessions. It is cheap and safe to share.
type Client struct {
	apiKey     string
	wsURL      string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithWebSocketURL overrides the realtime endpoint.
func WithWebSocketURL(url string) Option {
	return func(c *Client) { c.wsURL = url }
}

// WithHTTPClient sets the HTTP client used for the websocket handshake.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for wire-level debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a realtime client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("realtime: API key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		wsURL:      DefaultWebSocketURL,
		httpClient: http.DefaultClient,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect opens a websocket session for the given model. The returned
// session's read loop runs until Close or a wire error.
func (c *Client) Connect(ctx context.Context, model string) (*Session, error) {
	url := fmt.Sprintf("%s?model=%s", c.wsURL, model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: c.httpClient,
		HTTPHeader: headers,
	})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime: connect failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime: connect failed: %w", err)
	}
	conn.SetReadLimit(readLimit)

	s := newSession(conn, c.log)
	go s.readLoop()
	return s, nil
}
