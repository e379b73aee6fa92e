package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// maxErrorBody caps how much of an error response body is kept for messages.
const maxErrorBody = 512

// Client is an HTTP client for the PokeAPI list and detail endpoints.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client rooted at baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches one page of the Pokemon index.
func (c *Client) List(ctx context.Context, offset, limit int) (ListResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out ListResponse
	if err := c.getJSON(ctx, "list", "/pokemon?"+q.Encode(), &out); err != nil {
		return ListResponse{}, err
	}
	if out.Count < 0 {
		return ListResponse{}, &Error{Op: "list", Kind: ErrMalformed, Err: fmt.Errorf("negative count %d", out.Count)}
	}
	return out, nil
}

// Pokemon fetches a single Pokemon by numeric id or name.
func (c *Client) Pokemon(ctx context.Context, idOrName string) (Pokemon, error) {
	ref := strings.ToLower(strings.TrimSpace(idOrName))
	if ref == "" {
		return Pokemon{}, &Error{Op: "pokemon", Kind: ErrNotFound, Err: fmt.Errorf("empty id or name")}
	}

	var out Pokemon
	if err := c.getJSON(ctx, "pokemon", "/pokemon/"+url.PathEscape(ref), &out); err != nil {
		return Pokemon{}, err
	}
	if out.ID <= 0 || out.Name == "" {
		return Pokemon{}, &Error{Op: "pokemon", Kind: ErrMalformed, Err: fmt.Errorf("missing id or name for %q", ref)}
	}
	return out, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Op: op, Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// Caller cancellation is not a transport failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("pokeapi request failed", "op", op, "path", path, "err", err)
		return &Error{Op: op, Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("pokeapi request",
		"op", op,
		"path", path,
		"status", resp.StatusCode,
		"lat_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Op: op, Kind: ErrNotFound, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var cause error
		if msg := strings.TrimSpace(string(body)); msg != "" {
			cause = fmt.Errorf("%s", msg)
		}
		return &Error{Op: op, Kind: ErrStatus, Status: resp.StatusCode, Err: cause}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &Error{Op: op, Kind: ErrMalformed, Status: resp.StatusCode, Err: err}
	}
	return nil
}
