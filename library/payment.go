package library

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// transactionPrefix marks transaction ids issued for late-fee payments.
// Refunds are only attempted against ids carrying it.
const transactionPrefix = "txn_"

// PaymentResponse is the gateway's answer to a charge attempt.
type PaymentResponse struct {
	Approved      bool
	TransactionID string
	Message       string
}

// RefundResponse is the gateway's answer to a refund attempt.
type RefundResponse struct {
	Approved bool
	Message  string
}

// PaymentGateway is the external settlement capability. Implementations are
// interchangeable — a declined charge is an unapproved response, while a
// non-nil error means the gateway itself failed. The gateway performs its
// own request validation; the bridge only pre-validates to avoid needless
// calls.
type PaymentGateway interface {
	ProcessPayment(patronID string, amount float64, description string) (PaymentResponse, error)
	RefundPayment(transactionID string, amount float64) (RefundResponse, error)
}

// SimulatedGateway is a deterministic, network-free gateway used by default
// and in tests. It approves any well-formed request.
type SimulatedGateway struct{}

// ProcessPayment validates the request shape and approves it with a fresh
// transaction id.
func (SimulatedGateway) ProcessPayment(patronID string, amount float64, description string) (PaymentResponse, error) {
	if !validPatronID(patronID) {
		return PaymentResponse{Message: "Invalid patron ID"}, nil
	}
	if amount <= 0 {
		return PaymentResponse{Message: "Invalid amount"}, nil
	}
	return PaymentResponse{
		Approved:      true,
		TransactionID: transactionPrefix + uuid.NewString(),
		Message:       fmt.Sprintf("Payment of $%.2f processed successfully", amount),
	}, nil
}

// RefundPayment validates the request shape and approves the refund. The
// gateway itself places no upper bound on refund amounts; that rule belongs
// to the bridge.
func (SimulatedGateway) RefundPayment(transactionID string, amount float64) (RefundResponse, error) {
	if !strings.HasPrefix(transactionID, transactionPrefix) {
		return RefundResponse{Message: "Invalid transaction ID"}, nil
	}
	if amount <= 0 {
		return RefundResponse{Message: "Invalid refund amount"}, nil
	}
	return RefundResponse{
		Approved: true,
		Message:  fmt.Sprintf("Refund of $%.2f processed successfully", amount),
	}, nil
}

// ------------------ Payment bridge ------------------

// PayLateFee settles a patron's late fee on a book through the payment
// gateway. The gateway is never invoked when no fee is owed; that
// precondition keeps a zero-fee "payment" impossible rather than merely
// cheap. Gateway errors come back as structured outcomes, never as faults.
func (s *Service) PayLateFee(patronID string, bookID int64) PaymentOutcome {
	if !validPatronID(patronID) {
		return PaymentOutcome{Failure: FailureValidation, Message: "Invalid patron ID. Must be exactly 6 digits."}
	}

	quote, err := s.CalculateLateFee(patronID, bookID)
	if err != nil {
		return PaymentOutcome{Failure: FailureStorage, Message: "Unable to calculate late fees."}
	}
	if quote.FeeAmount <= 0 {
		return PaymentOutcome{Failure: FailureBusinessRule, Message: "No late fees to pay for this book."}
	}

	book, err := s.db.FindBookByID(bookID)
	if err != nil {
		return PaymentOutcome{Failure: FailureStorage, Message: "Unable to calculate late fees."}
	}
	if book == nil {
		return PaymentOutcome{Failure: FailureNotFound, Message: "Book not found."}
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	resp, err := s.gateway.ProcessPayment(patronID, quote.FeeAmount, description)
	if err != nil {
		return PaymentOutcome{Failure: FailureGateway, Message: fmt.Sprintf("Payment processing error: %v", err)}
	}
	if !resp.Approved {
		return PaymentOutcome{Failure: FailureGateway, Message: fmt.Sprintf("Payment failed: %s", resp.Message)}
	}

	return PaymentOutcome{
		Success:       true,
		TransactionID: resp.TransactionID,
		Message:       fmt.Sprintf("Payment successful! %s", resp.Message),
	}
}

// RefundLateFeePayment reverses a previously settled late-fee payment, for
// example when fees were charged in error. Malformed transaction ids and
// out-of-range amounts are rejected before any gateway call; the cap is the
// maximum possible single-book late fee.
func (s *Service) RefundLateFeePayment(transactionID string, amount float64) PaymentOutcome {
	if !strings.HasPrefix(transactionID, transactionPrefix) {
		return PaymentOutcome{Failure: FailureValidation, Message: "Invalid transaction ID."}
	}
	if amount <= 0 {
		return PaymentOutcome{Failure: FailureBusinessRule, Message: "Refund amount must be greater than 0."}
	}
	if amount > MaxLateFee {
		return PaymentOutcome{Failure: FailureBusinessRule, Message: "Refund amount exceeds maximum late fee."}
	}

	resp, err := s.gateway.RefundPayment(transactionID, amount)
	if err != nil {
		return PaymentOutcome{Failure: FailureGateway, Message: fmt.Sprintf("Refund processing error: %v", err)}
	}
	if !resp.Approved {
		return PaymentOutcome{Failure: FailureGateway, Message: fmt.Sprintf("Refund failed: %s", resp.Message)}
	}

	return PaymentOutcome{Success: true, Message: resp.Message}
}
