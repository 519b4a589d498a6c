package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsIngestor/internal/config"
)

func TestPublishDigest(t *testing.T) {
	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "abc", ChatID: "42"}, nil, WithAPIBase(server.URL))
	require.NoError(t, n.PublishDigest(context.Background(), "run finished"))

	assert.Equal(t, "/botabc/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "run finished", gotText)
}

func TestPublishDigestTruncates(t *testing.T) {
	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotText = r.PostForm.Get("text")
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "abc", ChatID: "42"}, nil, WithAPIBase(server.URL))
	require.NoError(t, n.PublishDigest(context.Background(), strings.Repeat("x", 5000)))

	assert.Len(t, []rune(gotText), maxMessageRunes)
}

func TestPublishDigestErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "abc", ChatID: "42"}, nil, WithAPIBase(server.URL))
	err := n.PublishDigest(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestPublishDigestMisconfigured(t *testing.T) {
	n := NewNotifier(config.TelegramConfig{}, nil)
	assert.False(t, n.Enabled())
	assert.Error(t, n.PublishDigest(context.Background(), "hello"))
}
