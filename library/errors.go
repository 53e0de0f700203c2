package library

// FailureKind discriminates why an operation failed, so callers can decide
// what is retryable. Validation, not-found and business-rule failures are
// final; storage failures may be retried by the caller, never by the engine;
// gateway failures are converted at the payment bridge and never propagate
// as faults.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureNotFound
	FailureBusinessRule
	FailureStorage
	FailureGateway
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureValidation:
		return "validation"
	case FailureNotFound:
		return "not_found"
	case FailureBusinessRule:
		return "business_rule"
	case FailureStorage:
		return "storage"
	case FailureGateway:
		return "gateway"
	default:
		return "unknown"
	}
}

// validPatronID reports whether id is exactly 6 ASCII digits.
func validPatronID(id string) bool {
	if len(id) != 6 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// validISBN reports whether isbn is exactly 13 ASCII digits.
func validISBN(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	for i := 0; i < len(isbn); i++ {
		if isbn[i] < '0' || isbn[i] > '9' {
			return false
		}
	}
	return true
}
