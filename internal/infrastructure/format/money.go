// Package format renders amounts for user-facing messages.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MoneyFormatter formats decimal amounts in one locale and currency
type MoneyFormatter struct {
	printer *message.Printer
	symbol  string
}

// NewMoneyFormatter builds a formatter from a BCP 47 locale ("pt-BR") and
// an ISO 4217 currency code ("BRL").
func NewMoneyFormatter(locale, code string) (*MoneyFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	p := message.NewPrinter(tag)
	return &MoneyFormatter{
		printer: p,
		symbol:  strings.TrimSpace(p.Sprint(currency.Symbol(unit))),
	}, nil
}

// BRL returns the pt-BR formatter for Brazilian reais
func BRL() *MoneyFormatter {
	f, err := NewMoneyFormatter("pt-BR", "BRL")
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders d rounded to cents with the locale's separators, e.g. "R$ 1.234,56"
func (f *MoneyFormatter) Format(d decimal.Decimal) string {
	return f.symbol + " " + f.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Symbol returns the currency symbol used by Format
func (f *MoneyFormatter) Symbol() string {
	return f.symbol
}
