package portal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{host: "platform.example.com", want: "https://platform.example.com"},
		{host: "https://platform.example.com", want: "https://platform.example.com"},
		{host: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{host: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			c, err := NewClient(tc.host, nil)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.base.String())
			assert.Equal(t, DefaultUserAgent, c.UserAgent)
		})
	}
}

func TestClientDo_Status(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "hello") })
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "a=1")
		http.Redirect(w, r, "/boom", http.StatusFound)
	})
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("200", func(t *testing.T) {
		resp, err := c.Do(ctx, http.MethodGet, "/ok", Session{}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello", string(resp.Body))
	})

	t.Run("302 is not followed", func(t *testing.T) {
		resp, err := c.Do(ctx, http.MethodGet, "/moved", Session{}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/boom", resp.Header.Get("Location"))
		assert.Equal(t, []string{"a=1"}, resp.Header.Values("Set-Cookie"))
	})

	t.Run("500", func(t *testing.T) {
		_, err := c.Do(ctx, http.MethodGet, "/boom", Session{}, nil)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
		assert.Equal(t, "/boom", statusErr.Path)
	})

	t.Run("other redirects", func(t *testing.T) {
		_, err := c.Do(ctx, http.MethodGet, "/gone", Session{}, nil)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusMovedPermanently, statusErr.Code)
	})

	t.Run("404", func(t *testing.T) {
		_, err := c.Do(ctx, http.MethodGet, "/missing", Session{}, nil)
		var statusErr *StatusError
		assert.ErrorAs(t, err, &statusErr)
	})
}

func TestClientDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Do(context.Background(), http.MethodGet, "/", Session{}, nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestClientDo_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Do(ctx, http.MethodGet, "/", Session{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientDo_Headers(t *testing.T) {
	var got *http.Request
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got, body = r, string(b)
	}))
	defer srv.Close()
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()
	session := NewSession("a=1; path=/; HttpOnly", "b=2; path=/")

	tests := []struct {
		name        string
		method      string
		body        []byte
		contentType string
	}{
		{name: "get", method: http.MethodGet},
		{name: "form", method: http.MethodPost, body: []byte("trustAccountId=42"), contentType: "application/x-www-form-urlencoded; charset=UTF-8"},
		{name: "json", method: http.MethodPost, body: []byte(`{"id":42}`), contentType: "application/json; charset=UTF-8"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Do(ctx, tc.method, "/x?y=z", session, tc.body)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tc.method, got.Method)
			assert.Equal(t, "/x", got.URL.Path)
			assert.Equal(t, "z", got.URL.Query().Get("y"))
			assert.Equal(t, DefaultUserAgent, got.Header.Get("User-Agent"))
			assert.Equal(t, "a=1; b=2", got.Header.Get("Cookie"))
			assert.Equal(t, tc.contentType, got.Header.Get("Content-Type"))
			assert.Equal(t, int64(len(tc.body)), got.ContentLength)
			assert.Equal(t, string(tc.body), body)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		_, err := c.Do(ctx, http.MethodGet, "/", Session{}, nil)
		require.NoError(t, err)
		assert.Empty(t, got.Header.Get("Cookie"))
	})
}

func TestClientEpoch(t *testing.T) {
	c, err := NewClient("example.com", nil)
	require.NoError(t, err)
	c.Now = func() time.Time { return time.Unix(1700000000, 0) }
	assert.Equal(t, int64(1699999000), c.epoch())
}
