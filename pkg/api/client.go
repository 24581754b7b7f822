// Package api is the HTTP client of the Jestr backend. Every operation is a
// POST to /<operation> with a JSON body that repeats the operation name;
// every answer is wrapped in an Envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jestr-media/client/pkg/logging"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodySize    = 8 << 20
)

var validate = validator.New()

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	user    string
	log     *zap.Logger
}

type Option func(*Client)

// WithToken sets the bearer token sent with feed requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUser sets the signed-in user's email.
func WithUser(email string) Option {
	return func(c *Client) { c.user = email }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log)
	return c
}

func (c *Client) User() string {
	return c.user
}

// do validates req, posts it to the operation's endpoint and decodes the
// envelope's data into out, which may be nil.
func (c *Client) do(ctx context.Context, operation string, req any, out any) error {
	// Validate request
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRequest, operation, err)
	}

	// Encode body with the operation name
	fields := map[string]json.RawMessage{}
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	fields["operation"], _ = json.Marshal(operation)
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	// Send request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+operation, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	c.log.Debug("API request",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	// Decode envelope
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	var env Envelope
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			if resp.StatusCode >= 300 {
				return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
			}
			return fmt.Errorf("%w: %s: %v", ErrBadResponse, operation, err)
		}
	}
	if resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: %s: missing data", ErrBadResponse, operation)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadResponse, operation, err)
	}
	return nil
}
