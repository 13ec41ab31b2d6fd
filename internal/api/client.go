// Package api talks to the dashboard's REST backend.
package api

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
)

const (
	headerAuthorization = "Authorization"
	headerRole          = "Role"
	headerRequestID     = "X-Request-Id"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 15 * time.Second

type Client struct {
	httpclient *http.Client
	api        string
	log        logrus.FieldLogger
	requestID  func() string
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpclient = hc }
}

// WithTimeout bounds every request, whichever http.Client is in use.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("base url is not absolute: %q", baseURL)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		httpclient: &http.Client{Timeout: DefaultTimeout},
		api:        strings.TrimSuffix(baseURL, "/"),
		log:        discard,
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpclient
		hc.Timeout = c.timeout
		c.httpclient = &hc
	}
	return c, nil
}

// build URL with path
func (c *Client) apipath(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, c.api)
	for _, p := range path {
		parts = append(parts, url.PathEscape(strings.Trim(p, "/")))
	}
	return strings.Join(parts, "/")
}

// do sends one request. body, when non-nil, is sent as JSON. sess may be
// nil for calls made before sign-in.
func (c *Client) do(ctx context.Context, sess *session.Session, method, target string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if sess != nil {
		req.Header.Set(headerAuthorization, sess.Token)
		req.Header.Set(headerRole, sess.Role)
	}
	id := c.requestID()
	req.Header.Set(headerRequestID, id)

	log := c.log.WithFields(logrus.Fields{
		"request_id": id,
		"method":     method,
		"url":        target,
	})
	start := time.Now()
	resp, err := c.httpclient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("request done")
	return resp, nil
}

// decodeJSON reads a 2xx JSON body into v, or turns any other status into
// an *Error carrying the backend's message (or fallback).
func decodeJSON[T any](resp *http.Response, v *T, fallback string) error {
	if StatusCodeRangeOf(resp) == Status2xx {
		if v == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("unexpected response: %w (status code = %d)", err, resp.StatusCode)
		}
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	msg := parseErrorMessage(body)
	if msg == "" {
		msg = fallback
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}

// The backend answers errors as {"Message": ...} on mutations and
// {"message": ...} on sign-in.
func parseErrorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, k := range []string{"Message", "message", "error"} {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
