package usecase

import (
	"context"
	"errors"
	"net/http"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/infrastructure/httpclient"
	"github.com/tradeflow/backend/internal/infrastructure/llm"
)

// AdapterErrorKind buckets adapter failures for logs
type AdapterErrorKind string

const (
	AdapterErrorUnknown   AdapterErrorKind = "unknown"
	AdapterErrorCanceled  AdapterErrorKind = "canceled"
	AdapterErrorTimeout   AdapterErrorKind = "timeout"
	AdapterErrorAuth      AdapterErrorKind = "auth"
	AdapterErrorRateLimit AdapterErrorKind = "rate_limit"
	AdapterErrorHTTP      AdapterErrorKind = "http"
	AdapterErrorTransport AdapterErrorKind = "transport"
	AdapterErrorConfig    AdapterErrorKind = "config"
	AdapterErrorParse     AdapterErrorKind = "parse"
	AdapterErrorPanic     AdapterErrorKind = "panic"
)

// errAdapterPanic marks a recovered adapter panic
var errAdapterPanic = errors.New("adapter panicked")

func classifyAdapterError(err error) AdapterErrorKind {
	if err == nil {
		return AdapterErrorUnknown
	}
	switch {
	case errors.Is(err, errAdapterPanic):
		return AdapterErrorPanic
	case errors.Is(err, context.Canceled):
		return AdapterErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return AdapterErrorTimeout
	case errors.Is(err, domain.ErrNotConfigured):
		return AdapterErrorConfig
	case errors.Is(err, domain.ErrMalformedPayload), errors.Is(err, domain.ErrMalformedEstimate):
		return AdapterErrorParse
	}

	status := 0
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		status = statusErr.Status
	} else if code, ok := llm.StatusCode(err); ok {
		status = code
	}
	if status != 0 {
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return AdapterErrorAuth
		case status == http.StatusTooManyRequests:
			return AdapterErrorRateLimit
		default:
			return AdapterErrorHTTP
		}
	}

	return AdapterErrorTransport
}
