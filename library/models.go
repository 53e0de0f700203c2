package library

import "time"

// Book represents a catalog entry and its current copy availability.
// AvailableCopies always stays within [0, TotalCopies]; only borrow and
// return move it.
type Book struct {
	ID              int64  `db:"id" json:"id"`
	Title           string `db:"title" json:"title"`
	Author          string `db:"author" json:"author"`
	ISBN            string `db:"isbn" json:"isbn"`
	TotalCopies     int    `db:"total_copies" json:"total_copies"`
	AvailableCopies int    `db:"available_copies" json:"available_copies"`
}

// BorrowRecord is one loan of one book copy to a patron. A record with no
// return date is active; returns resolve the oldest active record first.
type BorrowRecord struct {
	ID         int64      `db:"id" json:"id"`
	PatronID   string     `db:"patron_id" json:"patron_id"`
	BookID     int64      `db:"book_id" json:"book_id"`
	BorrowDate time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	ReturnDate *time.Time `db:"return_date" json:"return_date"`
}

// Active reports whether the record still has the book out.
func (r *BorrowRecord) Active() bool { return r.ReturnDate == nil }

// FeeStatus classifies the outcome of a late-fee calculation. The values
// double as the human-readable status strings of the calculation contract.
type FeeStatus string

const (
	FeeStatusSuccess        FeeStatus = "Success"
	FeeStatusNoActiveRecord FeeStatus = "No active borrow record"
	FeeStatusBookNotFound   FeeStatus = "Error: Book not found."
	FeeStatusInvalidInput   FeeStatus = "Error: Invalid input."
)

// FeeQuote is the derived (never persisted) result of a late-fee calculation.
type FeeQuote struct {
	FeeAmount   float64   `json:"fee_amount"`
	DaysOverdue int       `json:"days_overdue"`
	Status      FeeStatus `json:"status"`
}

// PaymentOutcome is the bridge-level result of a payment or refund attempt.
type PaymentOutcome struct {
	Success       bool        `json:"success"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Message       string      `json:"message"`
	Failure       FailureKind `json:"-"`
}

// AddBookResult reports a catalog-add attempt.
type AddBookResult struct {
	OK      bool
	BookID  int64
	Message string
	Failure FailureKind
}

// BorrowResult reports a borrow attempt. DueDate is set on success.
type BorrowResult struct {
	OK      bool
	DueDate time.Time
	Message string
	Failure FailureKind
}

// ReturnResult reports a return attempt. FeeOwed is the late fee computed at
// the moment of return, zero when the book came back on time.
type ReturnResult struct {
	OK          bool
	FeeOwed     float64
	DaysOverdue int
	Message     string
	Failure     FailureKind
}

// LoanStatus is one currently-borrowed book inside a patron status report.
type LoanStatus struct {
	BookID      int64     `json:"book_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	DueDate     time.Time `json:"due_date"`
	IsOverdue   bool      `json:"is_overdue"`
	DaysOverdue int       `json:"days_overdue"`
	LateFee     float64   `json:"late_fee_current"`
}

// PatronStatus summarizes a patron's current loans and fees owed.
type PatronStatus struct {
	PatronID      string       `json:"patron_id"`
	BorrowedCount int          `json:"number_of_books_borrowed"`
	Loans         []LoanStatus `json:"books_currently_borrowed"`
	TotalLateFees float64      `json:"total_late_fees_owed"`
}

// Search types accepted by SearchBooks.
const (
	SearchByTitle  = "title"
	SearchByAuthor = "author"
	SearchByISBN   = "isbn"
)
