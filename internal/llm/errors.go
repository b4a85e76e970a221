package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindAuthError    ErrorKind = "auth_error"
	KindRateLimited  ErrorKind = "rate_limited"
	KindServerError  ErrorKind = "server_error"
	KindNetworkError ErrorKind = "network_error"
)

// ProviderError classifies every failed provider attempt. The resolver
// recovers from all kinds identically (fall through to the next stage); the
// kind exists for logs.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func statusError(provider string, status int, body []byte) *ProviderError {
	kind := KindServerError
	switch {
	case status == 401 || status == 403:
		kind = KindAuthError
	case status == 429:
		kind = KindRateLimited
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Err:      fmt.Errorf("status %d: %s", status, msg),
	}
}

func transportError(provider string, err error) *ProviderError {
	kind := KindNetworkError
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// envelopeError covers a 2xx response whose body does not carry usable
// content; it must not pass as success.
func envelopeError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindServerError, Err: err}
}
