package articles

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/verte-zerg/newstype/internal/gateway"
)

// User-facing banner messages.
const (
	QuotaMessage = "API quota exceeded. Please try again later."
	FailMessage  = "Failed to load news. Please try again."
)

var (
	// ErrCredentialMissing means no API key is stored.
	ErrCredentialMissing = errors.New("api key is missing")
	// ErrQuotaExceeded means the last known quota has nothing left.
	ErrQuotaExceeded = errors.New("api quota exceeded")
	// ErrFetchInFlight rejects a second fetch for a category that is already loading.
	ErrFetchInFlight = errors.New("fetch already in flight")

	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownCountry  = errors.New("unknown country")
)

// CredentialError is an upstream rejection of the API key.
type CredentialError struct {
	Message string
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("api key rejected: %s", e.Message)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// FetchError is a network or upstream failure for a category.
type FetchError struct {
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s news: %v", e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind classifies controller errors.
type Kind int

const (
	KindNone Kind = iota
	KindCredentialMissing
	KindCredentialRejected
	KindQuotaExceeded
	KindInFlight
	KindInvalid
	KindFetchFailed
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCredentialMissing:
		return "credential missing"
	case KindCredentialRejected:
		return "credential rejected"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindInFlight:
		return "in flight"
	case KindInvalid:
		return "invalid"
	default:
		return "fetch failed"
	}
}

// Classify maps err onto the error taxonomy.
func Classify(err error) Kind {
	var credErr *CredentialError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCredentialMissing):
		return KindCredentialMissing
	case errors.As(err, &credErr):
		return KindCredentialRejected
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrFetchInFlight):
		return KindInFlight
	case errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrUnknownCountry):
		return KindInvalid
	default:
		return KindFetchFailed
	}
}

// credentialRejection reports whether a gateway error rejects the API key,
// and returns the message to show in the prompt.
func credentialRejection(err error) (string, bool) {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return statusErr.Message, true
		}
	}
	if mentionsKey(err.Error()) {
		msg := err.Error()
		if statusErr != nil {
			msg = statusErr.Message
		}
		return msg, true
	}
	return "", false
}

func mentionsKey(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "api key") || strings.Contains(msg, "apikey")
}

func quotaRejection(err error) bool {
	var statusErr *gateway.StatusError
	return errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode == http.StatusPaymentRequired)
}
