// Package ledger projects the monthly fees of a student against the payments made for them.
package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

// tolerance under which a balance counts as settled
const tolerance = 0.01

const installmentPrefix = "Δόση"

// Status of a month, as shown to the school staff.
type Status string

const (
	StatusPaid     Status = "Εξοφλημένο"
	StatusPartial  Status = "Μερικώς εξοφλημένο"
	StatusUnpaid   Status = "Ανεξόφλητο"
	StatusOverpaid Status = "Υπερπληρωμή"
)

// SchoolYear is identified by the calendar year in which it starts, on September 1.
type SchoolYear int

func SchoolYearOf(t time.Time) SchoolYear {
	if t.Month() < time.September {
		return SchoolYear(t.Year() - 1)
	}
	return SchoolYear(t.Year())
}

func (y SchoolYear) Start() time.Time {
	return time.Date(int(y), time.September, 1, 0, 0, 0, 0, time.UTC)
}

// End is the start of the next school year.
func (y SchoolYear) End() time.Time { return (y + 1).Start() }

func (y SchoolYear) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(y.Start()) && t.Before(y.End())
}

func (y SchoolYear) String() string { return fmt.Sprintf("%d-%d", int(y), int(y)+1) }

type (
	// Month of the fee calendar. Name is the Greek month name used in payment notes.
	Month struct {
		Name   string     `json:"name"`
		Month  time.Month `json:"month"`
		Active bool       `json:"active"`
	}

	Calendar []Month

	Account struct {
		StudentID       string  `json:"studentId"`
		BaseFee         float64 `json:"baseFee"`
		DiscountPercent float64 `json:"discountPercent"`
	}

	Payment struct {
		ID        string    `json:"id"`
		StudentID string    `json:"studentId"`
		Amount    float64   `json:"amount"`
		Date      time.Time `json:"date"`
		Notes     string    `json:"notes"`
	}

	MonthStatement struct {
		Month    Month    `json:"month"`
		Due      float64  `json:"due"`
		Paid     float64  `json:"paid"`
		Balance  float64  `json:"balance"`
		Status   Status   `json:"status"`
		Payments []string `json:"payments"` // ids
	}

	Statement struct {
		StudentID  string           `json:"studentId"`
		Year       SchoolYear       `json:"year"`
		MonthlyFee float64          `json:"monthlyFee"`
		Months     []MonthStatement `json:"months"`
		TotalDue   float64          `json:"totalDue"`
		TotalPaid  float64          `json:"totalPaid"`
		Balance    float64          `json:"balance"`
		Unmatched  []Payment        `json:"unmatched"` // payments of the year whose notes name no month
	}
)

// DefaultCalendar runs from September to June; July and August carry no fee.
var DefaultCalendar = Calendar{
	{Name: "Σεπτέμβριος", Month: time.September, Active: true},
	{Name: "Οκτώβριος", Month: time.October, Active: true},
	{Name: "Νοέμβριος", Month: time.November, Active: true},
	{Name: "Δεκέμβριος", Month: time.December, Active: true},
	{Name: "Ιανουάριος", Month: time.January, Active: true},
	{Name: "Φεβρουάριος", Month: time.February, Active: true},
	{Name: "Μάρτιος", Month: time.March, Active: true},
	{Name: "Απρίλιος", Month: time.April, Active: true},
	{Name: "Μάιος", Month: time.May, Active: true},
	{Name: "Ιούνιος", Month: time.June, Active: true},
	{Name: "Ιούλιος", Month: time.July, Active: false},
	{Name: "Αύγουστος", Month: time.August, Active: false},
}

// InstallmentNote returns the payment note that assigns a payment to the named month.
func InstallmentNote(monthName string) string {
	return installmentPrefix + " " + monthName
}

func normalizeNote(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// MonthlyFee applies the discount percentage to the base fee.
func (a Account) MonthlyFee() float64 {
	return a.BaseFee * (1 - a.DiscountPercent/100)
}

func status(due, paid, balance float64) Status {
	switch {
	case balance < -tolerance:
		return StatusOverpaid
	case math.Abs(balance) < tolerance:
		return StatusPaid
	case paid > 0 && paid < due:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// Project computes the statement of account for the school year from scratch.
// Payments of other students or outside the year are ignored.
func Project(account Account, calendar Calendar, payments []Payment, year SchoolYear) Statement {
	fee := account.MonthlyFee()
	st := Statement{
		StudentID:  account.StudentID,
		Year:       year,
		MonthlyFee: fee,
		Months:     make([]MonthStatement, 0, len(calendar)),
		Unmatched:  []Payment{},
	}

	notes := make(map[string]int, len(calendar)) // {note: month index}
	for i, m := range calendar {
		ms := MonthStatement{Month: m, Payments: []string{}}
		if m.Active {
			ms.Due = fee
		}
		st.Months = append(st.Months, ms)
		notes[normalizeNote(InstallmentNote(m.Name))] = i
	}

	for _, p := range payments {
		if (account.StudentID != "" && p.StudentID != account.StudentID) || !year.Contains(p.Date) {
			continue
		}
		i, ok := notes[normalizeNote(p.Notes)]
		if !ok {
			st.Unmatched = append(st.Unmatched, p)
			continue
		}
		st.Months[i].Paid += p.Amount
		st.Months[i].Payments = append(st.Months[i].Payments, p.ID)
	}

	for i := range st.Months {
		ms := &st.Months[i]
		ms.Balance = ms.Due - ms.Paid
		ms.Status = status(ms.Due, ms.Paid, ms.Balance)
		st.TotalDue += ms.Due
		st.TotalPaid += ms.Paid
	}
	st.Balance = st.TotalDue - st.TotalPaid
	return st
}

// FormatAmount prints an amount in euros with the number formatting of tag.
func FormatAmount(tag language.Tag, amount float64) string {
	return message.NewPrinter(tag).Sprintf("%.2f €", amount)
}
