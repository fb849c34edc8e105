package sheet

import (
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders cell values with locale digit grouping and dates.
type Formatter struct {
	printer    *message.Printer
	dateLayout string
}

var dateLayouts = map[string]string{
	"en": "1/2/2006",
	"vi": "2/1/2006",
	"fr": "02/01/2006",
	"es": "2/1/2006",
	"it": "2/1/2006",
	"pt": "02/01/2006",
	"de": "2.1.2006",
	"ru": "02.01.2006",
	"ja": "2006/1/2",
	"zh": "2006/1/2",
	"ko": "2006. 1. 2.",
}

func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	base, _ := tag.Base()
	layout, ok := dateLayouts[base.String()]
	if !ok {
		layout = "2006-01-02"
	}
	if tag.String() == "en-GB" {
		layout = "02/01/2006"
	}
	return &Formatter{
		printer:    message.NewPrinter(tag),
		dateLayout: layout,
	}
}

func (f *Formatter) Number(x float64) string {
	return f.printer.Sprintf("%v", number.Decimal(x, number.MaxFractionDigits(3)))
}

// Text returns the display text of v, unescaped. Numbers are always
// re-grouped, whatever the source's cached text says.
func (f *Formatter) Text(v Value, display string) string {
	switch v.Kind {
	case ValueEmpty:
		return ""
	case ValueNumber:
		return f.Number(v.Number)
	case ValueDate:
		return v.Date.Format(f.dateLayout)
	case ValueRichText:
		return strings.Join(v.Runs, "")
	case ValueFormula:
		if v.Result != nil {
			return f.Text(*v.Result, display)
		}
		return display
	case ValueBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case ValueError:
		return v.Text
	default:
		if display != "" {
			return display
		}
		return v.Text
	}
}

// HTML escapes the display text and turns line breaks into <br>.
func (f *Formatter) HTML(v Value, display string) string {
	escaped := html.EscapeString(f.Text(v, display))
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br>")
}
