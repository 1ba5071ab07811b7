package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError carries the backend's error response. Detail is the
// human-readable message the API optionally returns; when present it is
// surfaced verbatim.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Detail     string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "resource api status error"
	}
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return fmt.Sprintf("resource api %s status: %s", e.Operation, e.Status)
}

type request struct {
	method    string
	path      string
	operation string
	// idempotent permits transport-level retries; only reads qualify
	// because a replayed write could duplicate server-side effects.
	idempotent  bool
	contentType string
	body        io.Reader
	// tokenOverride authenticates with an explicit token instead of the
	// session credential (the identity fetch during login).
	tokenOverride string
	// noAuth skips the Authorization header entirely (login, register).
	noAuth bool
	out    any
}

func (c *Client) do(ctx context.Context, req request) error {
	usedSessionToken := false
	err := c.exec.Do(ctx, req.operation, req.idempotent, classifyTransportError, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
		if err != nil {
			return fmt.Errorf("create %s request: %w", req.operation, err)
		}
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		switch {
		case req.noAuth:
		case req.tokenOverride != "":
			httpReq.Header.Set("Authorization", "Bearer "+req.tokenOverride)
		default:
			if token := c.sessionToken(); token != "" {
				httpReq.Header.Set("Authorization", "Bearer "+token)
				usedSessionToken = true
			}
		}

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.observe(req.operation, 0, time.Since(start))
			return fmt.Errorf("resource api %s request: %w", req.operation, err)
		}
		defer resp.Body.Close()
		c.observe(req.operation, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= 300 {
			return newStatusError(req.operation, resp)
		}
		if req.out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil {
			return fmt.Errorf("decode %s response: %w", req.operation, err)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	// A rejected session credential tears the session down globally; a
	// rejected explicit credential (login, identity fetch) stays local.
	if usedSessionToken && statusCodeOf(err) == http.StatusUnauthorized && c.onAuthReject != nil {
		c.onAuthReject()
	}
	return c.toDomainError(req.operation, err)
}

func newStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	statusErr := &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		statusErr.Detail = strings.TrimSpace(payload.Detail)
	}
	return statusErr
}

func statusCodeOf(err error) int {
	var statusErr *StatusError
	if asStatusError(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
