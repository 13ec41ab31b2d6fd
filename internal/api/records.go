package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, username, password string) (session.Session, error) {
	resp, err := c.do(ctx, nil, http.MethodPost, c.apipath("auth"), credentials{username, password})
	if err != nil {
		return session.Session{}, err
	}
	defer resp.Body.Close()

	var out signInResponse
	if err := decodeJSON(resp, &out, "invalid username or password"); err != nil {
		return session.Session{}, err
	}
	if out.Token == "" {
		return session.Session{}, &Error{Status: resp.StatusCode, Message: "Login failed"}
	}
	if out.Username == "" {
		out.Username = username
	}
	return session.Session{Token: out.Token, Username: out.Username, Role: out.Role}, nil
}

// Page is one backend page of rows.
type Page struct {
	Number     int
	Limit      int
	Results    []entity.Row
	TotalPages int
	// Meta holds the remaining pagination fields as sent.
	Meta map[string]any
}

// List fetches backend page number (1-based) of d with limit rows.
func (c *Client) List(ctx context.Context, sess session.Session, d entity.Descriptor, page, limit int) (Page, error) {
	target := fmt.Sprintf("%s?page=%d&limit=%d", c.apipath(d.Path), page, limit)
	resp, err := c.do(ctx, &sess, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	if err := decodeJSON(resp, &raw, "Failed to load "+strings.ToLower(d.Plural)); err != nil {
		return Page{}, err
	}

	p := Page{Number: page, Limit: limit, TotalPages: 1, Meta: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "results":
			if err := json.Unmarshal(v, &p.Results); err != nil {
				return Page{}, fmt.Errorf("decode %s results: %w", d.Path, err)
			}
		default:
			var m any
			if err := json.Unmarshal(v, &m); err == nil {
				p.Meta[k] = m
			}
		}
	}
	if n := metaInt(p.Meta["totalPages"]); n > 0 {
		p.TotalPages = n
	}
	if p.Results == nil {
		p.Results = []entity.Row{}
	}
	return p, nil
}

func metaInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// Get fetches the editable record of d identified by key.
func (c *Client) Get(ctx context.Context, sess session.Session, d entity.Descriptor, key string) (entity.Row, error) {
	resp, err := c.do(ctx, &sess, http.MethodGet, c.apipath(d.Path, "edit", key), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var row entity.Row
	if err := decodeJSON(resp, &row, fmt.Sprintf("Failed to load %s", strings.ToLower(d.Name))); err != nil {
		return nil, err
	}
	return row, nil
}

// Create adds a record.
func (c *Client) Create(ctx context.Context, sess session.Session, d entity.Descriptor, row entity.Row) error {
	return c.mutate(ctx, sess, http.MethodPost, c.apipath(d.Path), row, "Failed to add "+strings.ToLower(d.Name))
}

// Update replaces a record; the identity field inside row selects it.
func (c *Client) Update(ctx context.Context, sess session.Session, d entity.Descriptor, row entity.Row) error {
	return c.mutate(ctx, sess, http.MethodPut, c.apipath(d.Path), row, "Failed to update "+strings.ToLower(d.Name))
}

// Delete removes the record identified by key.
func (c *Client) Delete(ctx context.Context, sess session.Session, d entity.Descriptor, key string) error {
	return c.mutate(ctx, sess, http.MethodDelete, c.apipath(d.Path, key), nil, "Failed to delete "+strings.ToLower(d.Name))
}

func (c *Client) mutate(ctx context.Context, sess session.Session, method, target string, body any, fallback string) error {
	resp, err := c.do(ctx, &sess, method, target, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON[struct{}](resp, nil, fallback)
}

// ClientOptions lists the clients a customer can belong to.
func (c *Client) ClientOptions(ctx context.Context, sess session.Session) ([]entity.Option, error) {
	resp, err := c.do(ctx, &sess, http.MethodGet, c.apipath(entity.Clients.Path, "dropdown"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var opts []entity.Option
	if err := decodeJSON(resp, &opts, "Failed to load dropdown data"); err != nil {
		return nil, err
	}
	return opts, nil
}
