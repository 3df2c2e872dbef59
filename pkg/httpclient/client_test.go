package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := New(time.Second).PostJSON(context.Background(), srv.URL, map[string]string{"text": "hi"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "hi", got["text"])
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := New(time.Second).Retry(3, time.Millisecond).PostJSON(context.Background(), srv.URL, "x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	resp, err := New(time.Second).Retry(3, time.Millisecond).PostJSON(context.Background(), srv.URL, "x")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	var se *StatusError
	require.True(t, errors.As(resp.Err(), &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestExhaustedRetriesReturnLastResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := New(time.Second).Retry(2, time.Millisecond).PostJSON(context.Background(), srv.URL, "x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Error(t, resp.Err())
}

func TestNetworkErrorAndCancel(t *testing.T) {
	_, err := New(100*time.Millisecond).PostJSON(context.Background(), "http://127.0.0.1:1/hook", "x")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(time.Second).Retry(3, time.Hour).PostJSON(ctx, "http://127.0.0.1:1/hook", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
