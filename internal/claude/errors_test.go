package claude

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", &Error{Kind: KindTransport}, true},
		{"rate limited", &Error{Kind: KindRateLimited}, true},
		{"provider 500", &Error{Kind: KindProvider, Status: 500}, true},
		{"provider 503", &Error{Kind: KindProvider, Status: 503}, true},
		{"provider 400", &Error{Kind: KindProvider, Status: 400}, false},
		{"provider 404", &Error{Kind: KindProvider, Status: 404}, false},
		{"provider 422", &Error{Kind: KindProvider, Status: 422}, false},
		{"credential", &Error{Kind: KindCredential}, false},
		{"configuration", &Error{Kind: KindConfiguration}, false},
		{"input too large", &Error{Kind: KindInputTooLarge}, false},
		{"malformed response", &Error{Kind: KindMalformedResponse}, false},
		{"wrapped transport", fmt.Errorf("while probing: %w", &Error{Kind: KindTransport}), true},
		{"foreign error", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	apiErr := &Error{Kind: KindCredential, Message: "api key rejected"}

	if kind, ok := KindOf(apiErr); !ok || kind != KindCredential {
		t.Errorf("KindOf = %v/%v, want credential/true", kind, ok)
	}
	if kind, ok := KindOf(fmt.Errorf("wrapped: %w", apiErr)); !ok || kind != KindCredential {
		t.Errorf("KindOf(wrapped) = %v/%v, want credential/true", kind, ok)
	}
	if _, ok := KindOf(errors.New("boom")); ok {
		t.Error("KindOf reported a kind for a foreign error")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("KindOf reported a kind for nil")
	}
}

func TestErrorMessage(t *testing.T) {
	wrapped := &Error{
		Kind:    KindTransport,
		Message: "request failed",
		Err:     errors.New("dial tcp: connection refused"),
	}
	if got, want := wrapped.Error(), "request failed: dial tcp: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &Error{Kind: KindProvider, Message: "provider returned 500: oops", Status: 500}
	if got, want := bare.Error(), "provider returned 500: oops"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("underlying")
	err := &Error{Kind: KindRateLimited, Message: "giving up", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is does not reach the wrapped error")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindConfiguration, "configuration"},
		{KindInputTooLarge, "input_too_large"},
		{KindCredential, "credential"},
		{KindRateLimited, "rate_limited"},
		{KindMalformedResponse, "malformed_response"},
		{KindTransport, "transport"},
		{KindProvider, "provider"},
		{ErrorKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
