package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/klipach/fixturebot/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "123:abc"

	getMeResponse   = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Fixtures","username":"fixturebot"}}`
	sentResponse    = `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`
	okResponse      = `{"ok":true,"result":true}`
	updatesResponse = `{"ok":true,"result":[` +
		`{"update_id":1,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"text":"/help"}},` +
		`{"update_id":2,"edited_message":{"message_id":6,"date":0,"chat":{"id":42,"type":"private"},"text":"edited"}}` +
		`]}`
	twoMessagesResponse = `{"ok":true,"result":[` +
		`{"update_id":1,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"text":"/checklive"}},` +
		`{"update_id":2,"message":{"message_id":6,"date":0,"chat":{"id":43,"type":"private"},"text":"/checktoday"}}` +
		`]}`
	noUpdatesResponse = `{"ok":true,"result":[]}`
)

type fakeBotAPI struct {
	mu      sync.Mutex
	calls   map[string][]map[string]string
	updates string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.calls[method] = append(f.calls[method], form)
	updates := f.updates
	f.mu.Unlock()
	if updates == "" {
		updates = updatesResponse
	}

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		_, _ = w.Write([]byte(getMeResponse))
	case "sendMessage":
		_, _ = w.Write([]byte(sentResponse))
	case "getUpdates":
		if form["offset"] == "" {
			_, _ = w.Write([]byte(updates))
			return
		}
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte(noUpdatesResponse))
	case "setWebhook", "deleteWebhook":
		_, _ = w.Write([]byte(okResponse))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBotAPI) callsTo(method string) []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.calls[method]...)
}

func newTestClient(t *testing.T) (*Client, *fakeBotAPI) {
	t.Helper()
	fake := &fakeBotAPI{calls: map[string][]map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	c, err := New(testToken,
		WithEndpoint(server.URL+"/bot%s/%s"),
		WithHTTPClient(server.Client()),
		WithSendRate(1000),
	)
	require.NoError(t, err)
	return c, fake
}

func TestNew(t *testing.T) {
	c, fake := newTestClient(t)

	assert.Equal(t, "fixturebot", c.Username())
	assert.Len(t, fake.callsTo("getMe"), 1)
}

func TestSendText(t *testing.T) {
	c, fake := newTestClient(t)

	require.NoError(t, c.SendText(context.Background(), 42, "Arsenal - Chelsea\t2:1"))

	calls := fake.callsTo("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", calls[0]["chat_id"])
	assert.Equal(t, "Arsenal - Chelsea\t2:1", calls[0]["text"])
}

func TestSendTextCanceled(t *testing.T) {
	c, fake := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.SendText(context.Background(), 42, "first"))
	assert.Error(t, c.SendText(ctx, 42, "second"))
	assert.Len(t, fake.callsTo("sendMessage"), 1)
}

func TestRun(t *testing.T) {
	c, fake := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan contract.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, time.Second, 2, func(_ context.Context, msg contract.Message) error {
			received <- msg
			return nil
		})
	}()

	select {
	case msg := <-received:
		assert.Equal(t, contract.Message{ChatID: 42, Text: "/help"}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not dispatched")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	calls := fake.callsTo("getUpdates")
	require.NotEmpty(t, calls)
	assert.Equal(t, `["message"]`, calls[0]["allowed_updates"])
}

func TestRunStopsWaitingForSlotOnCancel(t *testing.T) {
	c, fake := newTestClient(t)
	fake.mu.Lock()
	fake.updates = twoMessagesResponse
	fake.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	started := make(chan contract.Message, 2)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, time.Second, 1, func(_ context.Context, msg contract.Message) error {
			started <- msg
			<-release
			return nil
		})
	}()

	select {
	case msg := <-started:
		assert.Equal(t, contract.Message{ChatID: 42, Text: "/checklive"}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not dispatched")
	}

	// both updates are delivered once the offset is acknowledged
	require.Eventually(t, func() bool {
		return len(fake.callsTo("getUpdates")) >= 2
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Empty(t, started)
}

func TestSetWebhook(t *testing.T) {
	c, fake := newTestClient(t)

	require.NoError(t, c.SetWebhook("https://example.com/Webhook", "s3cret", true))
	require.NoError(t, c.DeleteWebhook(false))

	set := fake.callsTo("setWebhook")
	require.Len(t, set, 1)
	assert.Equal(t, "https://example.com/Webhook", set[0]["url"])
	assert.Equal(t, "s3cret", set[0]["secret_token"])
	assert.Equal(t, "true", set[0]["drop_pending_updates"])

	del := fake.callsTo("deleteWebhook")
	require.Len(t, del, 1)
	assert.Equal(t, "false", del[0]["drop_pending_updates"])
}

func TestMessageFromUpdate(t *testing.T) {
	tests := []struct {
		name     string
		update   tgbotapi.Update
		expected contract.Message
		ok       bool
	}{
		{
			name: "text message",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: 42},
				Text: "/checklive",
			}},
			expected: contract.Message{ChatID: 42, Text: "/checklive"},
			ok:       true,
		},
		{
			name: "photo without caption",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: 42},
			}},
		},
		{
			name:   "no message",
			update: tgbotapi.Update{UpdateID: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := MessageFromUpdate(tt.update)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestMessageFromWebhook(t *testing.T) {
	msg, ok, err := MessageFromWebhook(strings.NewReader(
		`{"update_id":9,"message":{"message_id":1,"date":0,"chat":{"id":-100,"type":"group"},"text":"/checkdate 2024-05-01"}}`,
	))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, contract.Message{ChatID: -100, Text: "/checkdate 2024-05-01"}, msg)

	_, _, err = MessageFromWebhook(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestErrorLogger(t *testing.T) {
	var buf bytes.Buffer
	l := errorLogger{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	l.Println("Failed to get updates, retrying in 3 seconds...")
	l.Printf("Endpoint: %s", "getUpdates")

	out := buf.String()
	assert.Contains(t, out, "telegram transport error")
	assert.Contains(t, out, "Failed to get updates, retrying in 3 seconds...")
	assert.Contains(t, out, "Endpoint: getUpdates")
}
