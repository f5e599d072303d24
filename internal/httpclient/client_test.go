package httpclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropkickfish/barq-client/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bars/tap/menu", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Tap"}`))
	}))
	defer srv.Close()

	c, err := httpclient.New(srv.URL + "/bars/tap/")
	require.NoError(t, err)

	var out struct{ Name string }
	require.NoError(t, c.GetJSON(context.Background(), "/menu", &out))
	assert.Equal(t, "Tap", out.Name)
}

func TestPostJSONSendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("Idempotency-Key"))
		var in map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]int{"doubled": in["n"] * 2})
	}))
	defer srv.Close()

	c, err := httpclient.New(srv.URL)
	require.NoError(t, err)

	var out struct{ Doubled int }
	h := http.Header{}
	h.Set("Idempotency-Key", "abc")
	require.NoError(t, c.PostJSON(context.Background(), "/x", map[string]int{"n": 21}, &out, h))
	assert.Equal(t, 42, out.Doubled)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := httpclient.New(srv.URL)
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "/menu", &struct{}{})
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusNotFound))
	assert.NotErrorIs(t, err, httpclient.ErrNetwork)
}

func TestUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := httpclient.New(url)
	require.NoError(t, err)
	err = c.GetJSON(context.Background(), "/menu", &struct{}{})
	assert.ErrorIs(t, err, httpclient.ErrNetwork)
}

func TestGarbageBodyIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c, err := httpclient.New(srv.URL)
	require.NoError(t, err)
	err = c.GetJSON(context.Background(), "/menu", &struct{}{})
	assert.ErrorIs(t, err, httpclient.ErrNetwork)
}

func TestNewRejectsBadScheme(t *testing.T) {
	_, err := httpclient.New("ftp://example.com")
	assert.Error(t, err)
}
