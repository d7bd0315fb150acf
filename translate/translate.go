// Package translate renders diagnostic text in the user's language.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer *message.Printer
	current language.Tag
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("vcpu: locale: %v", err)
	}

	SetLanguage(locales...)
}

// SetLanguage selects the best match among tags for all future messages.
// With no tags, en-US is used. Sentinel errors are rendered when their
// package is initialized and keep the text of the language at that time.
func SetLanguage(tags ...string) {
	if len(tags) == 0 {
		tags = []string{"en-US"}
	}

	current = message.MatchLanguage(tags...)
	printer = message.NewPrinter(current)
}

// Language returns the tag messages are rendered in.
func Language() language.Tag {
	return current
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
