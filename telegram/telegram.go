// Package telegram is the chat transport: it receives text messages from the
// Telegram Bot API and sends replies back.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/klipach/fixturebot/contract"
	"github.com/klipach/fixturebot/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultSendRate = 25
	messageUpdate   = "message"
)

// HandlerFunc handles one incoming text message.
type HandlerFunc func(ctx context.Context, msg contract.Message) error

type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

type options struct {
	endpoint   string
	httpClient *http.Client
	sendRate   float64
}

type Option func(*options)

// WithEndpoint overrides the Bot API endpoint format, see tgbotapi.APIEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSendRate limits outgoing messages per second.
func WithSendRate(perSecond float64) Option {
	return func(o *options) { o.sendRate = perSecond }
}

// New connects to the Bot API and checks the token with getMe.
func New(token string, opts ...Option) (*Client, error) {
	o := options{
		endpoint:   tgbotapi.APIEndpoint,
		httpClient: http.DefaultClient,
		sendRate:   defaultSendRate,
	}
	for _, opt := range opts {
		opt(&o)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.httpClient)
	if err != nil {
		return nil, err
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(o.sendRate), 1),
	}, nil
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

// SendText sends text to chatID. Failures are returned to the caller as is.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Run long-polls for updates and handles each text message on its own
// goroutine, at most maxConcurrent at a time. It returns once ctx is done and
// the dispatches already started have returned. An update still waiting for a
// free slot when ctx is done is not dispatched.
func (c *Client) Run(ctx context.Context, pollTimeout time.Duration, maxConcurrent int, handle HandlerFunc) error {
	logger := log.LoggerFromContext(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(pollTimeout.Seconds())
	u.AllowedUpdates = []string{messageUpdate}
	updates := c.api.GetUpdatesChan(u)

	var g errgroup.Group
	slots := make(chan struct{}, maxConcurrent)
	stop := func() error {
		c.api.StopReceivingUpdates()
		return g.Wait()
	}

	for {
		select {
		case <-ctx.Done():
			return stop()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			msg, ok := MessageFromUpdate(update)
			if !ok {
				logger.Debug("skipping non-text update", slog.Int("updateID", update.UpdateID))
				continue
			}
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return stop()
			}
			g.Go(func() error {
				defer func() { <-slots }()
				if err := handle(ctx, msg); err != nil {
					logger.Error("error while handling message",
						slog.Int64("chatID", msg.ChatID),
						slog.String("errorMsg", err.Error()),
					)
				}
				return nil
			})
		}
	}
}

// SetWebhook points Telegram at url. A non-empty secret is echoed back by
// Telegram in every delivery.
func (c *Client) SetWebhook(url, secret string, dropPending bool) error {
	params := tgbotapi.Params{
		"url":                  url,
		"allowed_updates":      `["` + messageUpdate + `"]`,
		"drop_pending_updates": strconv.FormatBool(dropPending),
	}
	params.AddNonEmpty("secret_token", secret)
	_, err := c.api.MakeRequest("setWebhook", params)
	return err
}

func (c *Client) DeleteWebhook(dropPending bool) error {
	_, err := c.api.MakeRequest("deleteWebhook", tgbotapi.Params{
		"drop_pending_updates": strconv.FormatBool(dropPending),
	})
	return err
}

// MessageFromUpdate extracts a text message. ok is false for any other update.
func MessageFromUpdate(update tgbotapi.Update) (contract.Message, bool) {
	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		return contract.Message{}, false
	}
	return contract.Message{
		ChatID: update.Message.Chat.ID,
		Text:   update.Message.Text,
	}, true
}

// MessageFromWebhook decodes a webhook delivery body.
func MessageFromWebhook(body io.Reader) (contract.Message, bool, error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		return contract.Message{}, false, err
	}
	msg, ok := MessageFromUpdate(update)
	return msg, ok, nil
}

// SetErrorLogger routes the library's transport errors, such as failed
// getUpdates calls, to logger. They are logged only.
func SetErrorLogger(logger *slog.Logger) error {
	return tgbotapi.SetLogger(errorLogger{logger: logger})
}

type errorLogger struct {
	logger *slog.Logger
}

func (l errorLogger) Println(v ...interface{}) {
	l.logger.Error("telegram transport error", slog.String("errorMsg", strings.TrimSpace(fmt.Sprintln(v...))))
}

func (l errorLogger) Printf(format string, v ...interface{}) {
	l.logger.Error("telegram transport error", slog.String("errorMsg", fmt.Sprintf(format, v...)))
}
