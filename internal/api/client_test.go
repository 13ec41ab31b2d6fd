package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whatsmynameidontknow/crm-admin/internal/api"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
)

var testSession = session.Session{Token: "tok-123", Username: "root", Role: "admin"}

// recorder is a test server that answers with a fixed status and body and
// remembers the last request.
type recorder struct {
	status int
	body   string

	method  string
	path    string
	query   string
	header  http.Header
	payload map[string]any
}

func (rec *recorder) server(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.payload = nil
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			require.NoError(t, json.Unmarshal(b, &rec.payload))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rec.status)
		io.WriteString(w, rec.body)
	}))
	t.Cleanup(srv.Close)

	c, err := api.NewClient(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := api.NewClient("localhost:8080")
	assert.Error(t, err)

	_, err = api.NewClient("")
	assert.Error(t, err)
}

func TestNewClient_TimeoutSurvivesHTTPClientOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	hc := &http.Client{}
	c, err := api.NewClient(srv.URL, api.WithTimeout(50*time.Millisecond), api.WithHTTPClient(hc))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Get(context.Background(), testSession, entity.Clients, "alpha")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, hc.Timeout, "caller's client is left untouched")
}

func TestSignIn(t *testing.T) {
	t.Run("success returns the session", func(t *testing.T) {
		rec := &recorder{status: http.StatusOK, body: `{"token":"jwt","username":"root","role":"admin"}`}
		c := rec.server(t)

		s, err := c.SignIn(context.Background(), "root", "root@123")
		require.NoError(t, err)
		assert.Equal(t, session.Session{Token: "jwt", Username: "root", Role: "admin"}, s)

		assert.Equal(t, http.MethodPost, rec.method)
		assert.Equal(t, "/auth", rec.path)
		assert.Equal(t, map[string]any{"username": "root", "password": "root@123"}, rec.payload)
		assert.Empty(t, rec.header.Get("Authorization"), "no session before sign-in")
		assert.NotEmpty(t, rec.header.Get("X-Request-Id"))
	})

	t.Run("server message is surfaced", func(t *testing.T) {
		rec := &recorder{status: http.StatusUnauthorized, body: `{"message":"account locked"}`}
		c := rec.server(t)

		_, err := c.SignIn(context.Background(), "root", "bad")
		require.Error(t, err)
		assert.Equal(t, "account locked", err.Error())
		assert.ErrorIs(t, err, api.ErrUnauthorized)
	})

	t.Run("fallback message", func(t *testing.T) {
		rec := &recorder{status: http.StatusBadRequest, body: `oops`}
		c := rec.server(t)

		_, err := c.SignIn(context.Background(), "root", "bad")
		require.Error(t, err)
		assert.Equal(t, "invalid username or password", err.Error())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := &recorder{status: http.StatusOK, body: `{}`}
		c := rec.server(t)

		_, err := c.SignIn(context.Background(), "root", "pw")
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	t.Run("decodes results and pagination metadata", func(t *testing.T) {
		rec := &recorder{status: http.StatusOK, body: `{
			"results": [
				{"client_name": "Beta", "user_name": "beta", "industry": "Retail"},
				{"client_name": "Alpha", "user_name": "alpha", "industry": "Energy"}
			],
			"totalPages": 4,
			"currentPage": 2
		}`}
		c := rec.server(t)

		p, err := c.List(context.Background(), testSession, entity.Clients, 2, 5)
		require.NoError(t, err)

		assert.Equal(t, "/clients", rec.path)
		assert.Equal(t, "page=2&limit=5", rec.query)
		assert.Equal(t, "tok-123", rec.header.Get("Authorization"))
		assert.Equal(t, "admin", rec.header.Get("Role"))

		assert.Equal(t, 2, p.Number)
		assert.Equal(t, 4, p.TotalPages)
		require.Len(t, p.Results, 2)
		assert.Equal(t, "beta", entity.Clients.Key(p.Results[0]))
		assert.Equal(t, float64(2), p.Meta["currentPage"])
	})

	t.Run("missing metadata defaults to a single page", func(t *testing.T) {
		rec := &recorder{status: http.StatusOK, body: `{"results": null}`}
		c := rec.server(t)

		p, err := c.List(context.Background(), testSession, entity.Customers, 1, 5)
		require.NoError(t, err)
		assert.Equal(t, 1, p.TotalPages)
		assert.NotNil(t, p.Results)
		assert.Empty(t, p.Results)
		assert.Equal(t, "/customers", rec.path)
	})

	t.Run("401 is unauthorized", func(t *testing.T) {
		rec := &recorder{status: http.StatusUnauthorized, body: `{}`}
		c := rec.server(t)

		_, err := c.List(context.Background(), testSession, entity.Clients, 1, 5)
		assert.ErrorIs(t, err, api.ErrUnauthorized)
	})

	t.Run("500 is not unauthorized", func(t *testing.T) {
		rec := &recorder{status: http.StatusInternalServerError, body: `{}`}
		c := rec.server(t)

		_, err := c.List(context.Background(), testSession, entity.Clients, 1, 5)
		require.Error(t, err)
		assert.NotErrorIs(t, err, api.ErrUnauthorized)

		var aerr *api.Error
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, http.StatusInternalServerError, aerr.Status)
		assert.Equal(t, "Failed to load clients", aerr.Message)
	})
}

func TestGet(t *testing.T) {
	rec := &recorder{status: http.StatusOK, body: `{"client_name":"Alpha","user_name":"alpha"}`}
	c := rec.server(t)

	row, err := c.Get(context.Background(), testSession, entity.Clients, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "/clients/edit/alpha", rec.path)
	assert.Equal(t, "Alpha", row.String("client_name"))
}

func TestMutations(t *testing.T) {
	row := entity.Row{"client_name": "Alpha", "user_name": "alpha"}

	tests := []struct {
		name       string
		call       func(c *api.Client) error
		wantMethod string
		wantPath   string
		wantBody   bool
	}{
		{
			name:       "create",
			call:       func(c *api.Client) error { return c.Create(context.Background(), testSession, entity.Clients, row) },
			wantMethod: http.MethodPost,
			wantPath:   "/clients",
			wantBody:   true,
		},
		{
			name:       "update",
			call:       func(c *api.Client) error { return c.Update(context.Background(), testSession, entity.Clients, row) },
			wantMethod: http.MethodPut,
			wantPath:   "/clients",
			wantBody:   true,
		},
		{
			name:       "delete",
			call:       func(c *api.Client) error { return c.Delete(context.Background(), testSession, entity.Customers, "bob") },
			wantMethod: http.MethodDelete,
			wantPath:   "/customers/bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, status := range []int{http.StatusOK, http.StatusCreated} {
				rec := &recorder{status: status, body: ``}
				c := rec.server(t)

				require.NoError(t, tt.call(c))
				assert.Equal(t, tt.wantMethod, rec.method)
				assert.Equal(t, tt.wantPath, rec.path)
				assert.Equal(t, "tok-123", rec.header.Get("Authorization"))
				if tt.wantBody {
					assert.Equal(t, "alpha", rec.payload["user_name"])
				} else {
					assert.Nil(t, rec.payload)
				}
			}
		})
	}
}

func TestMutation_ErrorMessage(t *testing.T) {
	t.Run("backend message", func(t *testing.T) {
		rec := &recorder{status: http.StatusConflict, body: `{"Message":"user name already taken"}`}
		c := rec.server(t)

		err := c.Create(context.Background(), testSession, entity.Clients, entity.Row{"user_name": "x"})
		require.Error(t, err)
		assert.Equal(t, "user name already taken", api.Message(err, "unused"))
	})

	t.Run("fallback", func(t *testing.T) {
		rec := &recorder{status: http.StatusBadGateway, body: `<html>`}
		c := rec.server(t)

		err := c.Delete(context.Background(), testSession, entity.Customers, "bob")
		require.Error(t, err)
		assert.Equal(t, "Failed to delete customer", err.Error())
	})

	t.Run("transport errors use the caller fallback", func(t *testing.T) {
		assert.Equal(t, "generic", api.Message(errors.New("dial tcp: refused"), "generic"))
	})
}

func TestClientOptions(t *testing.T) {
	rec := &recorder{status: http.StatusOK, body: `[{"client_name":"Acme","user_name":"acme"},{"client_name":"Globex","user_name":"globex"}]`}
	c := rec.server(t)

	opts, err := c.ClientOptions(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "/clients/dropdown", rec.path)
	assert.Equal(t, []entity.Option{{Label: "Acme", Value: "acme"}, {Label: "Globex", Value: "globex"}}, opts)
}

func TestStatusCodeRangeOf(t *testing.T) {
	tests := []struct {
		code int
		want api.StatusCodeRange
	}{
		{101, api.Status1xx},
		{204, api.Status2xx},
		{302, api.Status3xx},
		{404, api.Status4xx},
		{503, api.Status5xx},
		{700, api.StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, api.StatusCodeRangeOf(&http.Response{StatusCode: tt.code}), "code %d", tt.code)
	}
}
