package pushover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.pushover.net/1/messages.json"
	defaultTitle   = "Times Gate"
)

// Client sends failure notifications through the Pushover API. A client
// without credentials is a no-op.
type Client struct {
	baseURL    string
	token      string
	userKey    string
	title      string
	httpClient *http.Client
}

func NewClient(token, userKey, title string) *Client {
	return NewClientWithURL(defaultBaseURL, token, userKey, title)
}

func NewClientWithURL(baseURL, token, userKey, title string) *Client {
	if title == "" {
		title = defaultTitle
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		userKey:    userKey,
		title:      title,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c.token != "" && c.userKey != ""
}

func (c *Client) Notify(ctx context.Context, message string) error {
	if !c.Enabled() {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", message)
	data.Set("title", c.title)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pushover error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}
