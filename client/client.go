package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client ComfyUI API client. One instance owns at most one live
// WebSocket connection, identified on the server by ClientID.
type Client struct {
	baseURL    string
	clientID   string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger

	onEvent   EventCallback
	transport *Transport
}

// Option configures a Client
type Option func(*Client)

// WithClientID sets the client identifier sent to the server.
// Defaults to a random UUID.
func WithClientID(id string) Option {
	return func(c *Client) { c.clientID = id }
}

// WithBearerToken sets the bearer token sent on REST calls and
// appended to the WebSocket URL.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the default logger
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithEventCallback sets a generic callback receiving every transport event
func WithEventCallback(fn EventCallback) Option {
	return func(c *Client) { c.onEvent = fn }
}

// NewClient creates a ComfyUI client for the given base address,
// e.g. "http://127.0.0.1:8188".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  normalizeBaseURL(baseURL),
		clientID: uuid.New().String(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: newDefaultLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.transport = newTransport(c.baseURL, c.clientID, c.token, c.logger)
	if c.onEvent != nil {
		c.transport.SetEventCallback(c.onEvent)
	}
	return c
}

// ClientID returns the client identifier used for this session
func (c *Client) ClientID() string {
	return c.clientID
}

// Transport returns the WebSocket transport owned by this client
func (c *Client) Transport() *Transport {
	return c.transport
}

// Connect opens the WebSocket connection for this session.
// Any previously open connection is closed first.
func (c *Client) Connect(ctx context.Context) error {
	return c.transport.Connect(ctx)
}

// Disconnect closes the WebSocket connection if one is open
func (c *Client) Disconnect() {
	c.transport.Disconnect()
}

// newDefaultLogger creates a logger with consistent formatting
func newDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	return logger
}

// normalizeBaseURL ensures the base URL carries a protocol and no trailing slash
func normalizeBaseURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base
}

// CallOptions optional per-call overrides for the request target.
// Zero values fall back to the operation's defaults.
type CallOptions struct {
	Method string
	Path   string
}

// buildURL builds a complete URL from the base address, a path and query values
func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs an HTTP request with auth headers applied and returns the raw body.
// Response bodies carrying an "error" field are converted into an *APIError.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if apiErr := detectErrorBody(data); apiErr != nil {
		return nil, apiErr
	}

	return data, nil
}

// doJSON performs a request and decodes the JSON response into out.
// A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, reqBody interface{}, out interface{}) error {
	var body io.Reader
	contentType := ""

	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	data, err := c.do(ctx, method, rawURL, body, contentType)
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// detectErrorBody reports whether a JSON body carries a non-null "error" field
func detectErrorBody(data []byte) *APIError {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		// not a JSON object, nothing to detect
		return nil
	}
	if len(probe.Error) == 0 || string(probe.Error) == "null" {
		return nil
	}
	return &APIError{Body: string(data)}
}
