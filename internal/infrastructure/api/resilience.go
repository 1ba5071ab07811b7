package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/infrastructure/resilience"
)

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}

func classifyTransportError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, CountsAsFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Outcome{Retryable: true, CountsAsFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.Outcome{Retryable: true, CountsAsFailure: true}
		}
		// 4xx is the backend doing its job, not an outage.
		return resilience.Outcome{Retryable: false, CountsAsFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retryable: true, CountsAsFailure: true}
	}

	return resilience.Outcome{Retryable: false, CountsAsFailure: true}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// toDomainError maps a transport failure onto the error taxonomy the core
// components act on. The StatusError stays in the chain so its detail
// string is what callers render.
func (c *Client) toDomainError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized:
			return domain.WrapError(domain.ErrAuth, operation, err)
		case http.StatusForbidden:
			return domain.WrapError(domain.ErrForbidden, operation, err)
		case http.StatusNotFound:
			return domain.WrapError(domain.ErrNotFound, operation, err)
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return domain.WrapError(domain.ErrValidation, operation, err)
		}
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return domain.WrapError(domain.ErrTemporary, operation, err)
		}
		return err
	}

	// Circuit open, connection refused, DNS failure: all transient from
	// the client's point of view.
	return domain.WrapError(domain.ErrTemporary, operation, err)
}
