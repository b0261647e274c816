package fixturebot

import (
	"fmt"

	"github.com/klipach/fixturebot/command"
)

// Texts is the catalog of static replies for one language.
type Texts struct {
	Welcome string
	Help    string
	Unknown string
	Failure string

	TeamSeasonUsage string
	SeasonFormat    string
	DateUsage       string
}

var ukrainianTexts = Texts{
	Welcome: "Вітаю у боті для пошуку і перегляду статистики футбольних матчів. Для ознайомства із функціями бота натисніть на кнопку Menu, або введіть команду /help",
	Help: "/checklive - пошук матчів в лайві " +
		"\n/checkteaminseason - пошук матчів команди в сезоні " +
		"\n/checkdate - пошук матчів за датою " +
		"\n/checktoday - пошук матчів на сьогодні",
	Unknown:         "Невідома команда. Будь ласка використайте команду /help для ознайомлення зі списком доступних команд.",
	Failure:         "Виникла помилка. Перевірте вказані дані.",
	TeamSeasonUsage: "Будь ласка вкажіть повну назву команди (наприклад Manchester City) і сезон, як 4-значне число (наприклад 2023)",
	SeasonFormat:    "Вкажіть сезон, як 4-значне число (наприклад 2023)",
	DateUsage:       "Будь ласка вкажіть корректну дату в форматі рррр-мм-дд",
}

var englishTexts = Texts{
	Welcome: "Welcome to the bot for finding and viewing football match statistics. Tap the Menu button or send /help to see what the bot can do.",
	Help: "/checklive - live matches " +
		"\n/checkteaminseason - a team's matches in a season " +
		"\n/checkdate - matches by date " +
		"\n/checktoday - today's matches",
	Unknown:         "Unknown command. Please use /help to see the list of available commands.",
	Failure:         "An error occurred. Please check the supplied data.",
	TeamSeasonUsage: "Please provide the full team name (e.g. Manchester City) and the season as a 4-digit number (e.g. 2023)",
	SeasonFormat:    "Provide the season as a 4-digit number (e.g. 2023)",
	DateUsage:       "Please provide a valid date in yyyy-mm-dd format",
}

var catalogs = map[string]Texts{
	"uk": ukrainianTexts,
	"en": englishTexts,
}

func TextsFor(lang string) (Texts, error) {
	t, ok := catalogs[lang]
	if !ok {
		return Texts{}, fmt.Errorf("unsupported language: %q", lang)
	}
	return t, nil
}

// Hint returns the corrective text for a rejected command.
func (t Texts) Hint(h command.Hint) string {
	switch h {
	case command.HintTeamSeasonUsage:
		return t.TeamSeasonUsage
	case command.HintSeasonFormat:
		return t.SeasonFormat
	case command.HintDateUsage:
		return t.DateUsage
	default:
		return t.Failure
	}
}
