package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tashkent is the shop's local time zone (UTC+5, no daylight saving).
var Tashkent = time.FixedZone("UZT", 5*60*60)

var currencyWord = map[string]string{
	"uz": "so'm",
	"en": "so'm",
	"ru": "сум",
}

// Number groups digits per the conventions of lang, keeping up to three
// fraction digits.
func Number(v float64, lang string) string {
	p := message.NewPrinter(tag(lang))
	return p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// Price formats an amount in so'm.
// Example: Price(150000, "en") => "150,000 so'm"
func Price(amount float64, lang string) string {
	word, ok := currencyWord[normLang(lang)]
	if !ok {
		word = currencyWord["uz"]
	}
	return Number(amount, lang) + " " + word
}

var months = map[string][12]string{
	"uz": {"yanvar", "fevral", "mart", "aprel", "may", "iyun", "iyul", "avgust", "sentabr", "oktabr", "noyabr", "dekabr"},
	"ru": {"января", "февраля", "марта", "апреля", "мая", "июня", "июля", "августа", "сентября", "октября", "ноября", "декабря"},
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

// Date renders t as a long date (day, full month name, year) in Tashkent time.
func Date(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(Tashkent)
	l := normLang(lang)
	names, ok := months[l]
	if !ok {
		l, names = "uz", months["uz"]
	}
	month := names[t.Month()-1]
	switch l {
	case "ru":
		return fmt.Sprintf("%d %s %d г.", t.Day(), month, t.Year())
	case "en":
		return fmt.Sprintf("%s %d, %d", month, t.Day(), t.Year())
	default:
		return fmt.Sprintf("%d-%s, %d", t.Day(), month, t.Year())
	}
}

func normLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i != -1 {
		lang = lang[:i]
	}
	return lang
}

func tag(lang string) language.Tag {
	t, err := language.Parse(normLang(lang))
	if err != nil {
		return language.Uzbek
	}
	return t
}
