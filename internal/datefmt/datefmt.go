// Package datefmt renders appointment dates for humans in a given locale.
package datefmt

import (
	"fmt"
	"time"

	"github.com/goodsign/monday"
)

const DefaultLocale = "en_US"

var layouts = map[monday.Locale]string{
	monday.LocaleEnUS: "January 2, at 15:04",
	monday.LocalePtBR: "02 de January, às 15:04h",
	monday.LocalePtPT: "02 de January, às 15:04h",
	monday.LocaleEsES: "2 de January, a las 15:04",
	monday.LocaleFrFR: "2 January, à 15:04",
	monday.LocaleDeDE: "2. January, um 15:04",
}

// Format is a pure function of its inputs. Unknown locales fall back to en_US.
func Format(t time.Time, locale string, loc *time.Location) string {
	l := monday.Locale(locale)
	layout, ok := layouts[l]
	if !ok {
		l = monday.LocaleEnUS
		layout = layouts[l]
	}
	if loc == nil {
		loc = time.UTC
	}
	return monday.Format(t.In(loc), layout, l)
}

type Formatter struct {
	locale string
	loc    *time.Location
}

func New(locale string, loc *time.Location) (Formatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	if _, ok := layouts[monday.Locale(locale)]; !ok {
		return Formatter{}, fmt.Errorf("unsupported locale %q", locale)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{locale: locale, loc: loc}, nil
}

func (f Formatter) Format(t time.Time) string {
	return Format(t, f.locale, f.loc)
}

func (f Formatter) Locale() string {
	return f.locale
}
