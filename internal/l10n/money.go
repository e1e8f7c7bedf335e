package l10n

import (
	"context"
	"fmt"
	"satchmo-store/internal/livesettings"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var symbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"KRW": "₩",
	"BRL": "R$",
	"MXN": "MX$",
	"CHF": "CHF ",
	"SEK": "SEK ",
}

// Symbol returns the display symbol for an ISO 4217 code.
func Symbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// MoneyFormat renders amount with the currency's standard number of decimals,
// grouped for locale. An empty symbol uses Symbol(code). Negative amounts are
// wrapped in parentheses.
func MoneyFormat(amount decimal.Decimal, code, symbol, locale string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("parse currency %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	if symbol == "" {
		symbol = Symbol(unit.String())
	}

	rounded := amount.Round(int32(scale))
	p := message.NewPrinter(tag)
	digits := p.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(scale)))

	if rounded.IsNegative() {
		return "(" + symbol + digits + ")", nil
	}
	return symbol + digits, nil
}

// Formatter formats money with the store's LANGUAGE settings.
type Formatter struct {
	settings *livesettings.Registry
}

func NewFormatter(settings *livesettings.Registry) *Formatter {
	return &Formatter{settings: settings}
}

func (f *Formatter) Currency(ctx context.Context) (string, error) {
	return f.settings.String(ctx, livesettings.GroupLanguage, "CURRENCY_CODE")
}

func (f *Formatter) Money(ctx context.Context, amount decimal.Decimal) (string, error) {
	code, err := f.Currency(ctx)
	if err != nil {
		return "", err
	}
	symbol, err := f.settings.String(ctx, livesettings.GroupLanguage, "CURRENCY")
	if err != nil {
		return "", err
	}
	locale, err := f.settings.String(ctx, livesettings.GroupLanguage, "LOCALE")
	if err != nil {
		return "", err
	}
	return MoneyFormat(amount, code, symbol, locale)
}
