package service

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
)

const day = 24 * time.Hour

// LoanPolicy holds the lending rules.
type LoanPolicy struct {
	DefaultDays int
	MaxDays     int
	FinePerDay  decimal.Decimal
	// MaxFine caps a single loan's fine; zero means uncapped.
	MaxFine decimal.Decimal
}

// LoanDays validates a requested loan length; zero selects the default.
func (p LoanPolicy) LoanDays(requested int) (int, error) {
	if requested == 0 {
		return p.DefaultDays, nil
	}
	if requested < 0 || (p.MaxDays > 0 && requested > p.MaxDays) {
		return 0, apperrors.ErrInvalidLoanPeriod
	}
	return requested, nil
}

// DueDate returns the date a loan of the given length falls due.
func DueDate(loanDate time.Time, days int) time.Time {
	return loanDate.Add(time.Duration(days) * day)
}

// DaysOverdue counts started days past due; any time past due counts as one day.
func DaysOverdue(due, asOf time.Time) int {
	if !asOf.After(due) {
		return 0
	}
	late := asOf.Sub(due)
	days := int(late / day)
	if late%day != 0 {
		days++
	}
	return days
}

// Fine returns the fine owed for a loan due at due and returned (or checked) at asOf.
func (p LoanPolicy) Fine(due, asOf time.Time) decimal.Decimal {
	days := DaysOverdue(due, asOf)
	if days == 0 {
		return decimal.Zero
	}
	fine := p.FinePerDay.Mul(decimal.NewFromInt(int64(days)))
	if p.MaxFine.IsPositive() && fine.GreaterThan(p.MaxFine) {
		fine = p.MaxFine
	}
	return fine.Round(2)
}

// Decorate fills the derived overdue fields. Open loans also get their accruing fine;
// returned loans keep the fine persisted at return time.
func (p LoanPolicy) Decorate(loan *model.Loan, now time.Time) {
	asOf := now
	if loan.ReturnedAt != nil {
		asOf = *loan.ReturnedAt
	}
	loan.DaysOverdue = DaysOverdue(loan.DueDate, asOf)
	loan.Overdue = loan.DaysOverdue > 0
	if loan.ReturnedAt == nil {
		loan.Fine = p.Fine(loan.DueDate, now)
	}
}
