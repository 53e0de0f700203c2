package library

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBookValidation(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})

	cases := []struct {
		name    string
		title   string
		author  string
		isbn    string
		copies  int
		message string
	}{
		{"empty title", "", "Author", "9780441172719", 1, "Title is required."},
		{"blank title", "   ", "Author", "9780441172719", 1, "Title is required."},
		{"long title", strings.Repeat("x", 201), "Author", "9780441172719", 1, "Title must be less than 200 characters."},
		{"empty author", "Title", "", "9780441172719", 1, "Author is required."},
		{"long author", "Title", strings.Repeat("x", 101), "9780441172719", 1, "Author must be less than 100 characters."},
		{"short isbn", "Title", "Author", "97804411727", 1, "ISBN must be exactly 13 digits."},
		{"non-digit isbn", "Title", "Author", "97804417271ab", 1, "ISBN must be exactly 13 digits."},
		{"zero copies", "Title", "Author", "9780441172719", 0, "Total copies must be a positive integer."},
		{"negative copies", "Title", "Author", "9780441172719", -2, "Total copies must be a positive integer."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := svc.AddBook(tc.title, tc.author, tc.isbn, tc.copies)
			assert.False(t, res.OK)
			assert.Equal(t, FailureValidation, res.Failure)
			assert.Equal(t, tc.message, res.Message)
		})
	}
}

func TestAddBookSuccessAndDuplicate(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})

	res := svc.AddBook("  Dune  ", " Frank Herbert ", "9780441172719", 3)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, `Book "Dune" has been successfully added to the catalog.`, res.Message)

	book, err := svc.db.FindBookByID(res.BookID)
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies)

	dup := svc.AddBook("Dune Reissue", "Frank Herbert", "9780441172719", 1)
	assert.False(t, dup.OK)
	assert.Equal(t, FailureBusinessRule, dup.Failure)
	assert.Equal(t, "A book with this ISBN already exists.", dup.Message)
}

func TestBorrowBookSuccess(t *testing.T) {
	svc, clock := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 2)

	res := svc.BorrowBook("123456", bookID)
	require.True(t, res.OK, res.Message)
	assert.True(t, res.DueDate.Equal(clock.AddDate(0, 0, LoanPeriodDays)))
	assert.Equal(t, `Successfully borrowed "Dune". Due date: 2025-03-15.`, res.Message)

	book, err := svc.db.FindBookByID(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies)

	record, err := svc.db.FindActiveBorrow("123456", bookID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Active())
	assert.Equal(t, LoanPeriodDays, daysBetween(record.BorrowDate, record.DueDate))
}

func TestBorrowBookFailures(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 1)

	res := svc.BorrowBook("12345", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, FailureValidation, res.Failure)
	assert.Equal(t, "Invalid patron ID. Must be exactly 6 digits.", res.Message)

	res = svc.BorrowBook("abc123", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, FailureValidation, res.Failure)

	res = svc.BorrowBook("123456", 9999)
	assert.False(t, res.OK)
	assert.Equal(t, FailureNotFound, res.Failure)
	assert.Equal(t, "Book not found.", res.Message)
}

func TestBorrowBookUnavailable(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 1)

	require.True(t, svc.BorrowBook("123456", bookID).OK)

	res := svc.BorrowBook("654321", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, FailureBusinessRule, res.Failure)
	assert.Equal(t, "This book is currently not available.", res.Message)

	// Failed borrow mutates nothing.
	book, err := svc.db.FindBookByID(bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.AvailableCopies)
	count, err := svc.db.CountActiveBorrows("654321")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBorrowLimitBoundary(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})

	isbns := []string{
		"9780000000001", "9780000000002", "9780000000003", "9780000000004",
		"9780000000005", "9780000000006", "9780000000007",
	}
	ids := make([]int64, 0, len(isbns))
	for _, isbn := range isbns {
		ids = append(ids, mustAddBook(t, svc, "Book "+isbn, isbn, 1))
	}

	for i := 0; i < 5; i++ {
		require.True(t, svc.BorrowBook("123456", ids[i]).OK)
	}

	// Holding exactly 5 books still permits a 6th.
	res := svc.BorrowBook("123456", ids[5])
	require.True(t, res.OK, res.Message)

	// Holding 6 trips the limit.
	res = svc.BorrowBook("123456", ids[6])
	assert.False(t, res.OK)
	assert.Equal(t, FailureBusinessRule, res.Failure)
	assert.Equal(t, "You have reached the maximum borrowing limit of 5 books.", res.Message)
}

func TestReturnBookValidation(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 1)

	res := svc.ReturnBook("", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, FailureValidation, res.Failure)
	assert.Equal(t, "Error: Invalid input.", res.Message)

	res = svc.ReturnBook("123456", 0)
	assert.False(t, res.OK)
	assert.Equal(t, FailureValidation, res.Failure)

	res = svc.ReturnBook("123456", 9999)
	assert.False(t, res.OK)
	assert.Equal(t, FailureNotFound, res.Failure)
	assert.Equal(t, "Error: Book not found.", res.Message)
}

func TestReturnBookNotBorrowed(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 1)

	res := svc.ReturnBook("123456", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, FailureNotFound, res.Failure)
	assert.Equal(t, "Error: Book not borrowed by this patron.", res.Message)
}

func TestReturnBookOnTime(t *testing.T) {
	svc, clock := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 2)

	require.True(t, svc.BorrowBook("123456", bookID).OK)
	*clock = clock.AddDate(0, 0, 7)

	res := svc.ReturnBook("123456", bookID)
	require.True(t, res.OK, res.Message)
	assert.Zero(t, res.FeeOwed)
	assert.Equal(t, "Book returned successfully. No late fee owed.", res.Message)

	// Round-trip restores availability.
	book, err := svc.db.FindBookByID(bookID)
	require.NoError(t, err)
	assert.Equal(t, 2, book.AvailableCopies)

	// A second return of the same book is a failure, not a no-op success.
	res = svc.ReturnBook("123456", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, "Error: Book not borrowed by this patron.", res.Message)
}

// Full circulation scenario: one copy, borrow, re-borrow refusal, late
// return with fee.
func TestSingleCopyLifecycle(t *testing.T) {
	svc, clock := testService(t, SimulatedGateway{})
	bookID := mustAddBook(t, svc, "Dune", "9780441172719", 1)

	res := svc.BorrowBook("123456", bookID)
	require.True(t, res.OK, res.Message)
	book, err := svc.db.FindBookByID(bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.AvailableCopies)
	assert.True(t, res.DueDate.Equal(clock.AddDate(0, 0, 14)))

	res = svc.BorrowBook("123456", bookID)
	assert.False(t, res.OK)
	assert.Equal(t, "This book is currently not available.", res.Message)

	*clock = clock.AddDate(0, 0, 20)

	ret := svc.ReturnBook("123456", bookID)
	require.True(t, ret.OK, ret.Message)
	assert.Equal(t, 6, ret.DaysOverdue)
	assert.InDelta(t, 3.00, ret.FeeOwed, 0.001)
	assert.Equal(t, "Book returned successfully. Late fee owed: $3.00", ret.Message)

	book, err = svc.db.FindBookByID(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies)
}

func TestSearchBooksBlankTerm(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})
	mustAddBook(t, svc, "Dune", "9780441172719", 1)

	books, err := svc.SearchBooks("   ", SearchByTitle)
	require.NoError(t, err)
	assert.Empty(t, books)

	books, err = svc.SearchBooks("dune", SearchByTitle)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestPatronStatus(t *testing.T) {
	svc, clock := testService(t, SimulatedGateway{})
	overdueID := mustAddBook(t, svc, "Dune", "9780441172719", 1)
	onTimeID := mustAddBook(t, svc, "Dune Messiah", "9780441172696", 1)

	require.True(t, svc.BorrowBook("123456", overdueID).OK)
	*clock = clock.AddDate(0, 0, 18)
	require.True(t, svc.BorrowBook("123456", onTimeID).OK)

	status, err := svc.PatronStatus("123456")
	require.NoError(t, err)
	assert.Equal(t, "123456", status.PatronID)
	assert.Equal(t, 2, status.BorrowedCount)
	require.Len(t, status.Loans, 2)

	// Oldest loan first: 18 days borrowed means 4 days overdue.
	first := status.Loans[0]
	assert.Equal(t, overdueID, first.BookID)
	assert.True(t, first.IsOverdue)
	assert.Equal(t, 4, first.DaysOverdue)
	assert.InDelta(t, 2.00, first.LateFee, 0.001)

	second := status.Loans[1]
	assert.Equal(t, onTimeID, second.BookID)
	assert.False(t, second.IsOverdue)
	assert.Zero(t, second.LateFee)

	assert.InDelta(t, 2.00, status.TotalLateFees, 0.001)
}

func TestPatronStatusInvalidID(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})

	_, err := svc.PatronStatus("12ab56")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid patron ID")
}

func TestPatronStatusNoLoans(t *testing.T) {
	svc, _ := testService(t, SimulatedGateway{})

	status, err := svc.PatronStatus("123456")
	require.NoError(t, err)
	assert.Equal(t, 0, status.BorrowedCount)
	assert.Empty(t, status.Loans)
	assert.Zero(t, status.TotalLateFees)
}
