package claude

import "errors"

// ErrorKind classifies a failed API operation. The set is closed:
// every error this package returns carries exactly one kind, and
// callers branch on it with errors.As rather than by matching message
// text.
type ErrorKind int

const (
	// KindConfiguration indicates a required setting is missing or
	// self-contradictory, such as a custom commentary style with no
	// instruction.
	KindConfiguration ErrorKind = iota

	// KindInputTooLarge indicates the input text exceeds the character
	// ceiling or the estimated token ceiling.
	KindInputTooLarge

	// KindCredential indicates a missing API key or one the provider
	// rejected with HTTP 401 or 403.
	KindCredential

	// KindRateLimited indicates provider throttling or persistent
	// service trouble: HTTP 429, or every retry attempt exhausted.
	KindRateLimited

	// KindMalformedResponse indicates the provider replied 2xx but the
	// body could not be decoded or lacks the required reply markers.
	KindMalformedResponse

	// KindTransport indicates the request never completed: DNS, dial,
	// TLS, or timeout failures.
	KindTransport

	// KindProvider indicates a non-2xx provider reply not covered by a
	// more specific kind. Status and Body carry the diagnostics.
	KindProvider
)

// String returns a short stable label for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInputTooLarge:
		return "input_too_large"
	case KindCredential:
		return "credential"
	case KindRateLimited:
		return "rate_limited"
	case KindMalformedResponse:
		return "malformed_response"
	case KindTransport:
		return "transport"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every Client operation.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message is a human-readable description of what went wrong.
	Message string

	// Status is the HTTP status code when a response was received,
	// zero otherwise.
	Status int

	// Body is the raw response body for provider errors.
	Body string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from an error produced by this package.
// ok is false for foreign errors.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// retryable reports whether a failed attempt is worth repeating.
// Configuration, size, credential, and malformed-response failures are
// permanent, as is any provider 4xx (429 is classified as
// KindRateLimited before reaching here). Everything else is assumed
// transient.
func retryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return true
	}
	switch apiErr.Kind {
	case KindConfiguration, KindInputTooLarge, KindCredential, KindMalformedResponse:
		return false
	case KindProvider:
		return apiErr.Status < 400 || apiErr.Status >= 500
	default:
		return true
	}
}

// truncate caps s at n bytes for log and error output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
