package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webdiner/webdiner/config"
)

func TestOpen(t *testing.T) {
	set, err := Open(nil)
	require.NoError(t, err)
	require.Len(t, set.Direct, 1)
	assert.Equal(t, "log", set.Direct[0].Channel())

	set, err = Open([]string{"log", "mail"})
	require.NoError(t, err)
	assert.Len(t, set.Direct, 2)

	_, err = Open([]string{"pigeon"})
	assert.Error(t, err)
}

func TestOpenSlackNeedsWebhook(t *testing.T) {
	config.Set("SLACK_WEBHOOK", "")
	_, err := Open([]string{"slack"})
	assert.Error(t, err)

	config.Set("SLACK_WEBHOOK", "http://127.0.0.1:1/hook")
	set, err := Open([]string{"slack"})
	require.NoError(t, err)
	require.Len(t, set.Broadcast, 1)
	config.Set("SLACK_WEBHOOK", "")
}

func TestSlackBroadcast(t *testing.T) {
	var got slackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL, time.Second)
	require.NoError(t, s.Broadcast(context.Background(), "3 people have not ordered for 2026-10-19", "Lin\nChen\nWang"))
	assert.Equal(t, "3 people have not ordered for 2026-10-19", got.Text)
	require.Len(t, got.Attachments, 1)
	assert.Contains(t, got.Attachments[0].Text, "Chen")
}

func TestSlackBroadcastHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL, time.Second).Broadcast(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestMailRequiresAddress(t *testing.T) {
	err := NewMail(SMTPConfig{Host: "localhost", Port: "25"}).Send(context.Background(), Message{To: Recipient{Name: "Lin"}})
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestBuildRaw(t *testing.T) {
	raw := string(buildRaw("webdiner@example.com", Message{
		To:      Recipient{Name: "Lin", Email: "lin@example.com"},
		Subject: "Lunch reminder for 2026-10-19",
		Body:    "line one\nline two",
	}))
	assert.Contains(t, raw, "To: Lin <lin@example.com>\r\n")
	assert.Contains(t, raw, "Subject: Lunch reminder for 2026-10-19\r\n")
	assert.True(t, strings.HasSuffix(raw, "line one\r\nline two"))
}
