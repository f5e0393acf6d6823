package backend

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
	"github.com/sony/gobreaker"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

const (
	headerRequestID = "X-Request-ID"
	maxBody         = 4 << 20
)

// TokenSource supplies the bearer token of the signed-in principal.
// An Unauthenticated failure means the call goes out anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client speaks to the record collection over HTTP.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	cb     *gobreaker.CircuitBreaker
	logger logging.Logger
}

// New builds a client for baseURL. tokens may be nil for anonymous use.
func New(baseURL string, httpClient *http.Client, tokens TokenSource, logger logging.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base:   u,
		http:   httpClient,
		tokens: tokens,
		cb:     CircuitBreaker("backend", logger),
		logger: logger,
	}, nil
}

// CircuitBreaker opens after three consecutive failures and lets a trial request through
// after ten seconds. Answers in the 4xx range count as successes: the
// backend is up, it just said no.
func CircuitBreaker(name string, logger logging.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				se, ok := err.(*StatusError)
				return ok && se.StatusCode >= 400 && se.StatusCode < 500
			},
		},
	)
}

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// decodeError is a 2xx answer whose body could not be read as expected.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "unexpected response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do runs one request through the breaker. op names the operation in
// errors and logs, e.g. "create listing".
func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, endpoint, in, out)
	})
	if err != nil {
		c.logger.Warn(ctx, "backend call failed", "op", op, "method", method, "url", endpoint, "error", err)
		return mapError(op, method != http.MethodGet, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		switch {
		case err == nil && token != "":
			req.Header.Set("Authorization", "Bearer "+token)
		case err != nil && !failure.Is(err, failure.ErrUnauthenticated):
			c.logger.Warn(ctx, "no token for backend call", "error", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// errorMessage pulls a message out of {"message": ...} or {"error": ...}
// bodies and falls back to the trimmed text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
