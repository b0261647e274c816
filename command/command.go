// Package command classifies incoming chat text into bot commands and
// validates their arguments.
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Intent is the kind of command a message asks for.
type Intent int

const (
	Unrecognized Intent = iota
	Start
	Help
	LiveFixtures
	FixturesByTeamSeason
	FixturesByDate
)

func (i Intent) String() string {
	switch i {
	case Start:
		return "Start"
	case Help:
		return "Help"
	case LiveFixtures:
		return "LiveFixtures"
	case FixturesByTeamSeason:
		return "FixturesByTeamSeason"
	case FixturesByDate:
		return "FixturesByDate"
	default:
		return "Unrecognized"
	}
}

const (
	startCommand           = "/start"
	helpCommand            = "/help"
	checkLiveCommand       = "/checklive"
	checkTeamSeasonCommand = "/checkteaminseason"
	checkDateCommand       = "/checkdate"
	checkTodayCommand      = "/checktoday"

	tokenSeparator = " "
)

// Hint identifies the corrective message shown for a rejected command.
type Hint int

const (
	HintTeamSeasonUsage Hint = iota + 1
	HintSeasonFormat
	HintDateUsage
)

func (h Hint) String() string {
	switch h {
	case HintTeamSeasonUsage:
		return "must supply full team name and a 4-digit season"
	case HintSeasonFormat:
		return "season must be a 4-digit number"
	case HintDateUsage:
		return "must supply a date in yyyy-mm-dd format"
	default:
		return "invalid command"
	}
}

// ValidationError is returned when a recognized command carries missing or
// malformed arguments. No backend call may be made for it.
type ValidationError struct {
	Intent Intent
	Hint   Hint
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Intent, e.Hint, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Intent, e.Hint)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Args holds validated, intent-specific parameters. It is one of TeamSeason or Date.
type Args interface {
	args()
}

type TeamSeason struct {
	TeamName string
	Season   uint16
}

// Date selects fixtures by day. When IsToday is set Date is empty and the
// caller substitutes the current date.
type Date struct {
	Date    string
	IsToday bool
}

func (TeamSeason) args() {}
func (Date) args()       {}

type Command struct {
	Intent Intent
	Args   Args
}

// Parse classifies text. The first matching rule wins:
// exact /start, /help, /checklive, then prefix /checkteaminseason,
// /checkdate and /checktoday. Anything else is Unrecognized.
// On a *ValidationError the returned Command still carries the Intent.
func Parse(text string) (Command, error) {
	switch {
	case text == startCommand:
		return Command{Intent: Start}, nil
	case text == helpCommand:
		return Command{Intent: Help}, nil
	case text == checkLiveCommand:
		return Command{Intent: LiveFixtures}, nil
	case strings.HasPrefix(text, checkTeamSeasonCommand):
		args, err := parseTeamSeason(tokenize(text))
		if err != nil {
			return Command{Intent: FixturesByTeamSeason}, err
		}
		return Command{Intent: FixturesByTeamSeason, Args: args}, nil
	case strings.HasPrefix(text, checkDateCommand):
		args, err := parseDate(tokenize(text))
		if err != nil {
			return Command{Intent: FixturesByDate}, err
		}
		return Command{Intent: FixturesByDate, Args: args}, nil
	case strings.HasPrefix(text, checkTodayCommand):
		return Command{Intent: FixturesByDate, Args: Date{IsToday: true}}, nil
	default:
		return Command{Intent: Unrecognized}, nil
	}
}

// tokenize splits on single spaces, so repeated spaces yield empty tokens.
func tokenize(text string) []string {
	return strings.Split(text, tokenSeparator)
}

// parseTeamSeason expects the command, one or more team name tokens and a
// season as the last token.
func parseTeamSeason(tokens []string) (TeamSeason, error) {
	if len(tokens) < 3 {
		return TeamSeason{}, &ValidationError{Intent: FixturesByTeamSeason, Hint: HintTeamSeasonUsage}
	}
	teamName := strings.Join(tokens[1:len(tokens)-1], tokenSeparator)
	if strings.TrimSpace(teamName) == "" {
		return TeamSeason{}, &ValidationError{Intent: FixturesByTeamSeason, Hint: HintTeamSeasonUsage}
	}

	season, err := strconv.ParseUint(tokens[len(tokens)-1], 10, 16)
	if err != nil {
		return TeamSeason{}, &ValidationError{Intent: FixturesByTeamSeason, Hint: HintSeasonFormat, Err: err}
	}
	return TeamSeason{TeamName: teamName, Season: uint16(season)}, nil
}

// parseDate takes the second token verbatim; the backend is the one to reject
// a malformed date.
func parseDate(tokens []string) (Date, error) {
	if len(tokens) < 2 {
		return Date{}, &ValidationError{Intent: FixturesByDate, Hint: HintDateUsage}
	}
	return Date{Date: tokens[1]}, nil
}
