// Package translate formats user-visible messages for the current locale.
package translate

import (
	"log/slog"
	"os"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// LangEnv overrides the detected locales when set.
const LangEnv = "MMIXDBG_LANG"

var printer *message.Printer

func init() {
	SetLanguage(detect()...)
}

func detect() (locales []string) {
	if lang := os.Getenv(LangEnv); lang != "" {
		return []string{lang}
	}

	locales, err := locale.GetLocales()
	if err != nil {
		slog.Debug("translate: locale detection failed", "err", err)
	}

	return
}

// SetLanguage selects the message printer for the first matching locale.
// An empty list selects en-US.
func SetLanguage(locales ...string) {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
