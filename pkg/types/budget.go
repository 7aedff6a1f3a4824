package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

var validPeriods = map[string]bool{
	PeriodWeekly:  true,
	PeriodMonthly: true,
	PeriodYearly:  true,
}

// Budget caps spending in a category over a period. BudgetLimit was added
// after the first release and reads as zero on older rows.
type Budget struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	CategoryID  string          `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
	Period      string          `json:"period"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the fields required to persist a budget.
func (b *Budget) Validate() error {
	if b.UserID == "" || b.CategoryID == "" {
		return ErrInvalidID
	}
	if !validPeriods[b.Period] {
		return ErrInvalidData
	}
	if b.Amount.IsNegative() || b.BudgetLimit.IsNegative() {
		return ErrInvalidAmount
	}
	if _, err := time.Parse(DateLayout, b.StartDate); err != nil {
		return ErrInvalidDate
	}
	return nil
}
