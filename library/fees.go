package library

import (
	"math"
	"time"
)

// Loan policy. Books are due 14 days after borrowing; overdue days cost
// $0.50/day for the first 7 and $1.00/day after that, capped at $15.00 per
// book.
const (
	LoanPeriodDays = 14
	MaxLateFee     = 15.00

	tierThresholdDays = 7
	tier1DailyRate    = 0.50
	tier2DailyRate    = 1.00
)

// LateFeeForOverdueDays computes the tiered late fee for a number of overdue
// days, rounded to cents. Non-positive day counts owe nothing.
func LateFeeForOverdueDays(days int) float64 {
	if days <= 0 {
		return 0
	}
	fee := tier1DailyRate * float64(days)
	if days > tierThresholdDays {
		fee = tier1DailyRate*tierThresholdDays + tier2DailyRate*float64(days-tierThresholdDays)
	}
	return roundCents(math.Min(fee, MaxLateFee))
}

// calculateFee derives the fee and overdue days for an active borrow record
// as of now. Pure given its inputs, so fee arithmetic tests stay
// deterministic.
func calculateFee(record *BorrowRecord, now time.Time) (fee float64, daysOverdue int) {
	daysBorrowed := daysBetween(record.BorrowDate, now)
	daysOverdue = daysBorrowed - LoanPeriodDays
	if daysOverdue < 0 {
		daysOverdue = 0
	}
	return LateFeeForOverdueDays(daysOverdue), daysOverdue
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}

// CalculateLateFee quotes the late fee a patron owes on a book as of the
// service clock. Domain outcomes (bad input, unknown book, nothing borrowed)
// come back in the quote status; a non-nil error means the record store
// itself failed and is surfaced loudly rather than folded into a quote.
func (s *Service) CalculateLateFee(patronID string, bookID int64) (FeeQuote, error) {
	if !validPatronID(patronID) || bookID <= 0 {
		return FeeQuote{Status: FeeStatusInvalidInput}, nil
	}

	book, err := s.db.FindBookByID(bookID)
	if err != nil {
		return FeeQuote{}, err
	}
	if book == nil {
		return FeeQuote{Status: FeeStatusBookNotFound}, nil
	}

	record, err := s.db.FindActiveBorrow(patronID, bookID)
	if err != nil {
		return FeeQuote{}, err
	}
	if record == nil {
		return FeeQuote{Status: FeeStatusNoActiveRecord}, nil
	}

	fee, overdue := calculateFee(record, s.now())
	return FeeQuote{FeeAmount: fee, DaysOverdue: overdue, Status: FeeStatusSuccess}, nil
}
