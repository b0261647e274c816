package fixturebot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/klipach/fixturebot/command"
	"github.com/klipach/fixturebot/config"
	"github.com/klipach/fixturebot/contract"
	"github.com/klipach/fixturebot/filter"
	"github.com/klipach/fixturebot/fixture"
	"github.com/klipach/fixturebot/log"
)

const (
	ErrorMsgLogField = "errorMsg"
	chatIDLogField   = "chatID"
	intentLogField   = "intent"
	outcomeLogField  = "outcome"
	queryLogField    = "query"
)

var errEmptyReply = errors.New("backend returned an empty body")

// Backend runs one query against the statistics backend.
type Backend interface {
	Fetch(ctx context.Context, q fixture.Query) (string, error)
}

// Sender delivers reply text to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Outcome int

const (
	Success Outcome = iota
	ValidationFailure
	BackendFailure
)

func (o Outcome) String() string {
	switch o {
	case ValidationFailure:
		return "ValidationFailure"
	case BackendFailure:
		return "BackendFailure"
	default:
		return "Success"
	}
}

type Reply struct {
	Text    string
	Outcome Outcome
}

// Dispatcher turns one incoming message into at most one backend call and
// exactly one reply. It keeps no state between messages.
type Dispatcher struct {
	backend Backend
	sender  Sender
	texts   Texts
	now     func() time.Time
	loc     *time.Location
}

type Option func(*Dispatcher)

func WithTexts(t Texts) Option {
	return func(d *Dispatcher) { d.texts = t }
}

// WithClock sets the clock /checktoday reads the current date from.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) { d.loc = loc }
}

func NewDispatcher(backend Backend, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		sender:  sender,
		texts:   ukrainianTexts,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromConfig wires a Dispatcher to the HTTP backend described by cfg.
func NewFromConfig(cfg config.Config, sender Sender) (*Dispatcher, error) {
	texts, err := TextsFor(cfg.Language)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	backend, err := fixture.NewClient(cfg.BackendBaseURL, fixture.NewHTTPClient(cfg.BackendTimeout))
	if err != nil {
		return nil, err
	}
	return NewDispatcher(backend, sender, WithTexts(texts), WithLocation(loc)), nil
}

// Handle replies to msg. Only a failure to send is returned.
func (d *Dispatcher) Handle(ctx context.Context, msg contract.Message) error {
	logger := log.LoggerFromContext(ctx).With(slog.Int64(chatIDLogField, msg.ChatID))
	ctx = log.WithLogger(ctx, logger)

	reply := d.Reply(ctx, msg.Text)
	logger.Info("message handled", slog.String(outcomeLogField, reply.Outcome.String()))

	return d.sender.SendText(ctx, msg.ChatID, reply.Text)
}

// Reply classifies text, runs the matching backend query if any and
// returns the text to send back.
func (d *Dispatcher) Reply(ctx context.Context, text string) Reply {
	cmd, err := command.Parse(text)
	logger := log.LoggerFromContext(ctx).With(slog.String(intentLogField, cmd.Intent.String()))

	if err != nil {
		logger.Info("invalid command arguments", slog.String(ErrorMsgLogField, err.Error()))
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			return Reply{Text: d.texts.Hint(verr.Hint), Outcome: ValidationFailure}
		}
		return Reply{Text: d.texts.Failure, Outcome: ValidationFailure}
	}

	switch cmd.Intent {
	case command.Start:
		return Reply{Text: d.texts.Welcome, Outcome: Success}
	case command.Help:
		return Reply{Text: d.texts.Help, Outcome: Success}
	case command.Unrecognized:
		return Reply{Text: d.texts.Unknown, Outcome: Success}
	}

	q := d.query(cmd)
	content, err := d.fetch(log.WithLogger(ctx, logger), q)
	if err != nil {
		logger.Error("error while querying backend",
			slog.String(queryLogField, q.Path+"?"+q.Params.Encode()),
			slog.String(ErrorMsgLogField, err.Error()),
		)
		return Reply{Text: d.texts.Failure, Outcome: BackendFailure}
	}
	return Reply{Text: content, Outcome: Success}
}

func (d *Dispatcher) query(cmd command.Command) fixture.Query {
	switch args := cmd.Args.(type) {
	case command.TeamSeason:
		return fixture.ByTeamInSeasonQuery(args.TeamName, args.Season)
	case command.Date:
		date := args.Date
		if args.IsToday {
			date = d.now().In(d.loc).Format(fixture.DateLayout)
		}
		return fixture.ByDateQuery(date, args.IsToday)
	default:
		return fixture.AllQuery()
	}
}

func (d *Dispatcher) fetch(ctx context.Context, q fixture.Query) (string, error) {
	body, err := d.backend.Fetch(ctx, q)
	if err != nil {
		return "", err
	}
	content := filter.Sanitize(body)
	// Telegram rejects empty messages
	if content == "" {
		return "", errEmptyReply
	}
	return content, nil
}
