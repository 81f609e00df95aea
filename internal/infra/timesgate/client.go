package timesgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"timesgate/internal/domain"
)

const (
	DefaultPort    = 80
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Connection is the fixed address and timeout of one device. It is built once
// and never changed.
type Connection struct {
	Host    string
	Port    int
	URL     string
	Timeout time.Duration
}

func NewConnection(host string, port int, timeout time.Duration) Connection {
	if port == 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Connection{
		Host:    host,
		Port:    port,
		URL:     "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/post",
		Timeout: timeout,
	}
}

// Client sends commands to a single device and classifies the replies.
// Calls are serialized: the device is not known to handle overlapping
// requests, so at most one command is in flight per Client.
type Client struct {
	conn       Connection
	httpClient *http.Client
	logger     *slog.Logger
	inflight   chan struct{}
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is reset to
// the connection timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		c.httpClient = &clone
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(conn Connection, opts ...Option) *Client {
	c := &Client{
		conn:       conn,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		inflight:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = conn.Timeout
	return c
}

// NewClientWithURL targets an arbitrary endpoint, e.g. an httptest server.
func NewClientWithURL(url string, timeout time.Duration, opts ...Option) *Client {
	conn := NewConnection("", 0, timeout)
	conn.URL = url
	return NewClient(conn, opts...)
}

func (c *Client) Connection() Connection {
	return c.conn
}

// Dispatch sends one command and returns the full reply when error_code is 0.
// Failures are *domain.ValidationError (unnamed command), *domain.TransportError
// or *domain.ProtocolError. Nothing is retried.
func (c *Client) Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, &domain.ValidationError{Field: string(cmd.Name), Reason: err.Error()}
	}

	select {
	case c.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, &domain.TransportError{Command: cmd.Name, Err: ctx.Err()}
	}
	defer func() { <-c.inflight }()

	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID, "command", string(cmd.Name))
	logger.Debug("sending command", "url", c.conn.URL, "body", string(body))

	start := time.Now()
	respBody, err := c.post(ctx, body)
	if err != nil {
		logger.Debug("command failed", "error", err, "elapsed", time.Since(start))
		return nil, &domain.TransportError{Command: cmd.Name, Err: err}
	}

	resp, err := domain.DecodeResponse(respBody)
	if err != nil {
		logger.Debug("invalid response", "error", err, "body", string(respBody))
		return nil, &domain.TransportError{Command: cmd.Name, Err: err}
	}

	logger.Debug("received response", "body", string(respBody), "elapsed", time.Since(start))

	code, ok := resp.ErrorCode()
	if !ok || code != 0 {
		return nil, &domain.ProtocolError{Command: cmd.Name, Code: code, CodeKnown: ok}
	}

	return resp, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conn.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	// The device answers with a text/html content type, so only the body is checked.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
