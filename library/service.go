package library

import (
	"fmt"
	"strings"
	"time"
)

// MaxActiveBorrows is the per-patron lending limit.
const MaxActiveBorrows = 5

const (
	maxTitleLen  = 200
	maxAuthorLen = 100
)

// Service is the borrowing engine: a façade over the record store enforcing
// catalog and circulation rules, with the payment gateway injected for fee
// settlement. The clock is injectable so date arithmetic is deterministic in
// tests; it defaults to wall-clock time.
type Service struct {
	db      *Database
	gateway PaymentGateway
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the engine to its record store and payment gateway.
func NewService(db *Database, gateway PaymentGateway, opts ...Option) *Service {
	s := &Service{db: db, gateway: gateway, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ------------------ Catalog ------------------

// AddBook validates and inserts a new catalog entry. All copies of a new
// book start available.
func (s *Service) AddBook(title, author, isbn string, totalCopies int) AddBookResult {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	switch {
	case title == "":
		return AddBookResult{Failure: FailureValidation, Message: "Title is required."}
	case len(title) > maxTitleLen:
		return AddBookResult{Failure: FailureValidation, Message: "Title must be less than 200 characters."}
	case author == "":
		return AddBookResult{Failure: FailureValidation, Message: "Author is required."}
	case len(author) > maxAuthorLen:
		return AddBookResult{Failure: FailureValidation, Message: "Author must be less than 100 characters."}
	case !validISBN(isbn):
		return AddBookResult{Failure: FailureValidation, Message: "ISBN must be exactly 13 digits."}
	case totalCopies <= 0:
		return AddBookResult{Failure: FailureValidation, Message: "Total copies must be a positive integer."}
	}

	existing, err := s.db.FindBookByISBN(isbn)
	if err != nil {
		return AddBookResult{Failure: FailureStorage, Message: "Database error occurred while adding the book."}
	}
	if existing != nil {
		return AddBookResult{Failure: FailureBusinessRule, Message: "A book with this ISBN already exists."}
	}

	id, err := s.db.InsertBook(title, author, isbn, totalCopies)
	if err != nil {
		return AddBookResult{Failure: FailureStorage, Message: "Database error occurred while adding the book."}
	}

	return AddBookResult{
		OK:      true,
		BookID:  id,
		Message: fmt.Sprintf("Book %q has been successfully added to the catalog.", title),
	}
}

// ------------------ Circulation ------------------

// BorrowBook lends one copy of a book to a patron. The borrow record insert
// and the availability decrement commit as one unit; a partial write
// surfaces as a storage failure, never as a silent success.
func (s *Service) BorrowBook(patronID string, bookID int64) BorrowResult {
	if !validPatronID(patronID) {
		return BorrowResult{Failure: FailureValidation, Message: "Invalid patron ID. Must be exactly 6 digits."}
	}

	book, err := s.db.FindBookByID(bookID)
	if err != nil {
		return BorrowResult{Failure: FailureStorage, Message: "Database error occurred while fetching the book."}
	}
	if book == nil {
		return BorrowResult{Failure: FailureNotFound, Message: "Book not found."}
	}
	if book.AvailableCopies <= 0 {
		return BorrowResult{Failure: FailureBusinessRule, Message: "This book is currently not available."}
	}

	current, err := s.db.CountActiveBorrows(patronID)
	if err != nil {
		return BorrowResult{Failure: FailureStorage, Message: "Database error occurred while counting borrowed books."}
	}
	// The limit trips at strictly more than 5 held books, so a patron
	// holding exactly 5 is still allowed one more. The boundary is part of
	// the lending contract; confirm with stakeholders before tightening it.
	if current > MaxActiveBorrows {
		return BorrowResult{Failure: FailureBusinessRule, Message: "You have reached the maximum borrowing limit of 5 books."}
	}

	borrowDate := s.now()
	dueDate := borrowDate.AddDate(0, 0, LoanPeriodDays)

	if err := s.db.BorrowBook(patronID, bookID, borrowDate, dueDate); err != nil {
		return BorrowResult{Failure: FailureStorage, Message: "Database error occurred while creating borrow record."}
	}

	return BorrowResult{
		OK:      true,
		DueDate: dueDate,
		Message: fmt.Sprintf("Successfully borrowed %q. Due date: %s.", book.Title, dueDate.Format("2006-01-02")),
	}
}

// ReturnBook takes a book back from a patron, quoting the late fee as of the
// moment of return before any state changes. The return-date write and the
// availability increment commit as one unit.
func (s *Service) ReturnBook(patronID string, bookID int64) ReturnResult {
	if patronID == "" || bookID <= 0 {
		return ReturnResult{Failure: FailureValidation, Message: "Error: Invalid input."}
	}

	book, err := s.db.FindBookByID(bookID)
	if err != nil {
		return ReturnResult{Failure: FailureStorage, Message: "Error: Could not process return."}
	}
	if book == nil {
		return ReturnResult{Failure: FailureNotFound, Message: "Error: Book not found."}
	}

	record, err := s.db.FindActiveBorrow(patronID, bookID)
	if err != nil {
		return ReturnResult{Failure: FailureStorage, Message: "Error: Could not process return."}
	}
	if record == nil {
		return ReturnResult{Failure: FailureNotFound, Message: "Error: Book not borrowed by this patron."}
	}

	// Quote the fee before mutating state so it reflects the moment of
	// return.
	fee, overdue := calculateFee(record, s.now())

	if err := s.db.ReturnBook(patronID, bookID, s.now()); err != nil {
		return ReturnResult{Failure: FailureStorage, Message: "Error: Could not process return."}
	}

	result := ReturnResult{OK: true, FeeOwed: fee, DaysOverdue: overdue}
	if fee > 0 {
		result.Message = fmt.Sprintf("Book returned successfully. Late fee owed: $%.2f", fee)
	} else {
		result.Message = "Book returned successfully. No late fee owed."
	}
	return result
}

// ------------------ Queries ------------------

// SearchBooks runs a catalog search; searchType is one of title, author or
// isbn.
func (s *Service) SearchBooks(term, searchType string) ([]Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Book{}, nil
	}
	return s.db.SearchBooks(term, searchType)
}

// PatronStatus reports a patron's current loans, per-loan overdue fees and
// the total owed as of the service clock.
func (s *Service) PatronStatus(patronID string) (*PatronStatus, error) {
	if !validPatronID(patronID) {
		return nil, fmt.Errorf("Invalid patron ID. Must be exactly 6 digits.")
	}

	loans, err := s.db.ListActiveBorrows(patronID)
	if err != nil {
		return nil, fmt.Errorf("patron status: %w", err)
	}

	now := s.now()
	status := &PatronStatus{
		PatronID:      patronID,
		BorrowedCount: len(loans),
		Loans:         []LoanStatus{},
	}

	for _, loan := range loans {
		fee, overdue := calculateFee(&loan.BorrowRecord, now)
		status.Loans = append(status.Loans, LoanStatus{
			BookID:      loan.BookID,
			Title:       loan.Title,
			Author:      loan.Author,
			DueDate:     loan.DueDate,
			IsOverdue:   overdue > 0,
			DaysOverdue: overdue,
			LateFee:     fee,
		})
		status.TotalLateFees = roundCents(status.TotalLateFees + fee)
	}

	return status, nil
}
