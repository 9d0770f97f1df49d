package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-ews/internal/config"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI serves the two Bot API methods the notifier uses.
type fakeBotAPI struct {
	mu       sync.Mutex
	messages []map[string]string
	fail     bool
	delay    time.Duration
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/bottest-token/getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"EWS","username":"ews_bot"}}`)
	case "/bottest-token/sendMessage":
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		if f.fail {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		_ = r.ParseForm()
		f.mu.Lock()
		f.messages = append(f.messages, map[string]string{
			"chat_id": r.PostForm.Get("chat_id"),
			"text":    r.PostForm.Get("text"),
		})
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *Notifier {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := &config.Config{TelegramBotToken: "test-token", TelegramChatID: 42, AlertTimeout: time.Second}
	n, err := NewNotifier(cfg, slog.Default(),
		WithAPIEndpoint(srv.URL+"/bot%s/%s"),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return n
}

func testAlert(probability float64) domain.Alert {
	return domain.Alert{
		ID:          "alert-1",
		Station:     "Stasiun Klimatologi Citeko, Bogor",
		Observation: domain.NewObservation(60, 97, 21),
		Result:      domain.NewPredictionResult(probability, 0.35),
		CreatedAt:   time.Date(2025, 1, 14, 16, 30, 0, 0, time.UTC),
	}
}

func TestNotifier_SendsDanger(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	require.NoError(t, n.Notify(context.Background(), testAlert(0.8)))

	require.Len(t, api.messages, 1)
	assert.Equal(t, "42", api.messages[0]["chat_id"])
	assert.Contains(t, api.messages[0]["text"], "Status: BAHAYA / SIAGA")
	assert.Equal(t, SinkName, n.Name())
}

func TestNotifier_SkipsSafe(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	err := n.Notify(context.Background(), testAlert(0.1))
	require.ErrorIs(t, err, notify.ErrSkipped)
	assert.Empty(t, api.messages)
}

func TestNotifier_APIError(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)
	api.fail = true

	err := n.Notify(context.Background(), testAlert(0.8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNotifier_CancelledContext(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, n.Notify(ctx, testAlert(0.8)), context.Canceled)
	assert.Empty(t, api.messages)
}

func TestNotifier_ReturnsAtDeadline(t *testing.T) {
	n := newTestNotifier(t, &fakeBotAPI{delay: 300 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.Notify(ctx, testAlert(0.8))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestNewNotifier_BadToken(t *testing.T) {
	srv := httptest.NewServer(&fakeBotAPI{})
	t.Cleanup(srv.Close)

	cfg := &config.Config{TelegramBotToken: "wrong", TelegramChatID: 42, AlertTimeout: time.Second}
	_, err := NewNotifier(cfg, slog.Default(), WithAPIEndpoint(srv.URL+"/bot%s/%s"), WithHTTPClient(srv.Client()))
	require.Error(t, err)
}

func TestFormatMessage(t *testing.T) {
	got := FormatMessage(testAlert(0.8123))

	want := "PERINGATAN DINI: RISIKO HUJAN EKSTREM (H+1)\n\n" +
		"Stasiun: Stasiun Klimatologi Citeko, Bogor\n" +
		"Waktu: 14-01-2025 16:30\n" +
		"Curah hujan (RR): 60.0 mm\n" +
		"Kelembaban (RH): 97.0 %\n" +
		"Suhu rata-rata (TAVG): 21.0 C\n" +
		"Probabilitas: 81.23% (ambang 0.35)\n" +
		"Status: BAHAYA / SIAGA\n\n" +
		"[SIAGA] Aktifkan protokol bencana."
	assert.Equal(t, want, got)
}
