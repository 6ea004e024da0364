package contactapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"loops-assistant/internal/domain"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorContains(t, err, "must not be empty")
}

func TestNewClient_BuildsEndpoint(t *testing.T) {
	c, err := NewClient("https://loops.lk/")
	require.NoError(t, err)
	require.Equal(t, "https://loops.lk/api/contact", c.url)
}

func TestCapture_PostsRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/contact", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	err = c.Capture(context.Background(), domain.ContactRecord{Name: "Jane", Email: "jane@example.com", Message: "hi", Source: "chatbot"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Jane", "email": "jane@example.com", "message": "hi", "source": "chatbot"}, got)
}

func TestCapture_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"name and email required"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	err = c.Capture(context.Background(), domain.ContactRecord{})
	require.ErrorContains(t, err, "unexpected status 400")
}

func TestCapture_NetworkError(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	require.NoError(t, err)
	err = c.Capture(context.Background(), domain.ContactRecord{Name: "A", Email: "a@b.com"})
	require.ErrorContains(t, err, "request failed")
}
