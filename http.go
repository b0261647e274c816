package fixturebot

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/klipach/fixturebot/auth"
	"github.com/klipach/fixturebot/config"
	"github.com/klipach/fixturebot/log"
	"github.com/klipach/fixturebot/telegram"
)

func init() {
	functions.HTTP("Webhook", Webhook)
}

var webhookFromEnv = &lazyHandler{build: func() (http.Handler, error) {
	// Cloud Functions ingests structured stdout as log entries
	return newWebhookFromEnv(os.Stdout)
}}

// Webhook is the Cloud Function receiving Telegram updates. Its dependencies
// are built from the environment on the first call that succeeds.
func Webhook(w http.ResponseWriter, r *http.Request) {
	h, err := webhookFromEnv.get()
	if err != nil {
		log.LoggerFromContext(r.Context()).Error("error while setting up webhook", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}

// lazyHandler builds its handler on demand and keeps it only once built
// without error, so a failed setup is retried on the next request.
type lazyHandler struct {
	mu      sync.Mutex
	build   func() (http.Handler, error)
	handler http.Handler
}

func (l *lazyHandler) get() (http.Handler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handler != nil {
		return l.handler, nil
	}
	h, err := l.build()
	if err != nil {
		return nil, err
	}
	l.handler = h
	return h, nil
}

func newWebhookFromEnv(logOut io.Writer) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	lg := slog.New(log.NewCloudLoggingHandler(logOut, cfg.LogLevel()))
	if err := telegram.SetErrorLogger(lg); err != nil {
		return nil, err
	}
	tg, err := telegram.New(cfg.TelegramToken,
		telegram.WithEndpoint(cfg.TelegramEndpoint),
		telegram.WithSendRate(cfg.SendRate),
	)
	if err != nil {
		return nil, err
	}
	d, err := NewFromConfig(cfg, tg)
	if err != nil {
		return nil, err
	}
	return NewWebhookHandler(d, cfg.WebhookSecret, lg), nil
}

type webhook struct {
	dispatcher *Dispatcher
	secret     string
	logger     *slog.Logger
}

// NewWebhookHandler serves Telegram webhook deliveries with d.
func NewWebhookHandler(d *Dispatcher, secret string, logger *slog.Logger) http.Handler {
	return &webhook{dispatcher: d, secret: secret, logger: logger}
}

func (h *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger
	ctx := log.WithLogger(r.Context(), logger)

	if r.Method != http.MethodPost {
		logger.Error("invalid method: " + r.Method)
		http.Error(w, "Method Not Implemented", http.StatusNotImplemented)
		return
	}

	if err := auth.VerifySecretToken(r, h.secret); err != nil {
		logger.Error("error while authenticating", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msg, ok, err := telegram.MessageFromWebhook(r.Body)
	if err != nil {
		logger.Error("error while decoding update", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !ok {
		logger.Debug("skipping non-text update")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.dispatcher.Handle(ctx, msg); err != nil {
		logger.Error("error while sending reply",
			slog.Int64(chatIDLogField, msg.ChatID),
			slog.String(ErrorMsgLogField, err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
