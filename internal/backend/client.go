// Package backend is the outbound client for the aggregation API. All
// engine components fetch through it; it attaches the bearer credential and
// performs the single silent refresh-and-retry a 401 response is allowed.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/session"
)

// ErrUnauthorized is returned once the refresh-and-retry path is exhausted.
// The session has been cleared by the time callers see it.
var ErrUnauthorized = errors.New("backend: unauthorized")

const refreshPath = "/auth/access"

type Client struct {
	log     zerolog.Logger
	base    *url.URL
	http    *http.Client
	session *session.Store
	metrics *metrics.Metrics
}

type Options struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(log zerolog.Logger, sess *session.Store, m *metrics.Metrics, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		log:     log,
		base:    base,
		http:    &http.Client{Timeout: timeout},
		session: sess,
		metrics: m,
	}, nil
}

type httpError struct {
	Status int
	Body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d", e.Status)
}

// do runs one credentialed round trip. A 401 triggers exactly one silent
// token refresh followed by a retry of the original request; a second 401
// (or a failed refresh) clears the session and yields ErrUnauthorized.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	err := c.doOnce(ctx, method, path, query, body, out)
	var he *httpError
	if !errors.As(err, &he) || he.Status != http.StatusUnauthorized {
		return err
	}

	refreshErr := c.refresh(ctx)
	c.metrics.IncAuthRefresh(refreshErr)
	if refreshErr != nil {
		c.session.Clear()
		c.log.Warn().Err(refreshErr).Msg("token refresh failed, session cleared")
		return fmt.Errorf("%w: %v", ErrUnauthorized, refreshErr)
	}

	err = c.doOnce(ctx, method, path, query, body, out)
	if errors.As(err, &he) && he.Status == http.StatusUnauthorized {
		c.session.Clear()
		return ErrUnauthorized
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &httpError{Status: resp.StatusCode, Body: string(snippet)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

// refresh asks the auth endpoint for a fresh access token. The refresh
// request itself never retries.
func (c *Client) refresh(ctx context.Context) error {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.doOnce(ctx, http.MethodPost, refreshPath, nil, nil, &resp); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return errors.New("backend: refresh returned empty token")
	}
	c.session.Set(resp.AccessToken)
	return nil
}

// IsUnauthorized reports whether err is a 401 outcome, either the sentinel
// from the retry path or a raw 401 status.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var he *httpError
	return errors.As(err, &he) && he.Status == http.StatusUnauthorized
}

// decodeMarkers parses a marker collection, dropping records whose
// coordinates fail normalization and normalizing non-array payloads to
// empty. Malformed elements cost a record, never the response.
func decodeMarkers[T any](raw json.RawMessage, convert func(lat, lng float64, el json.RawMessage) (T, bool)) []T {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return []T{}
	}
	out := make([]T, 0, len(elements))
	for _, el := range elements {
		var coords struct {
			Lat *Coord `json:"lat"`
			Lng *Coord `json:"lng"`
		}
		if err := json.Unmarshal(el, &coords); err != nil {
			continue
		}
		if coords.Lat == nil || coords.Lng == nil || !coords.Lat.valid() || !coords.Lng.valid() {
			continue
		}
		if v, ok := convert(float64(*coords.Lat), float64(*coords.Lng), el); ok {
			out = append(out, v)
		}
	}
	return out
}
