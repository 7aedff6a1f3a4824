package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printer returns a message printer for the configured locale.
func (a *app) printer() (*message.Printer, error) {
	tag, err := language.Parse(a.cfg.GetString(cfgKeyLocale))
	if err != nil {
		return nil, userError(fmt.Errorf("locale %q: %w", a.cfg.GetString(cfgKeyLocale), err))
	}
	return message.NewPrinter(tag), nil
}

// formatAmount renders d with two fraction digits and locale grouping.
func formatAmount(p *message.Printer, d decimal.Decimal) string {
	return p.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
