package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/infrastructure/resilience"
)

// TokenProvider supplies the current session credential. Wired late by
// bootstrap because the session store itself depends on this client.
type TokenProvider interface {
	Token() string
}

// Observer receives per-request telemetry. Nil-safe.
type Observer interface {
	APIRequest(operation string, statusCode int, duration time.Duration)
}

// Client implements ports.ResourceAPI against the EasyLAW backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	exec       *resilience.Executor
	observer   Observer

	tokens       TokenProvider
	onAuthReject func()
}

func NewClient(baseURL string, timeout time.Duration, exec *resilience.Executor, observer Observer) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		exec:       exec,
		observer:   observer,
	}
}

func (c *Client) SetTokenProvider(p TokenProvider) { c.tokens = p }

// SetAuthRejectHandler registers the session-teardown hook invoked when
// the backend rejects the stored credential.
func (c *Client) SetAuthRejectHandler(fn func()) { c.onAuthReject = fn }

func (c *Client) sessionToken() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) observe(operation string, statusCode int, d time.Duration) {
	if c.observer != nil {
		c.observer.APIRequest(operation, statusCode, d)
	}
}

// ---- auth ----

func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("username", usernameOrEmail)
	form.Set("password", password)

	var grant domain.TokenGrant
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		operation:   "login",
		contentType: "application/x-www-form-urlencoded",
		body:        strings.NewReader(form.Encode()),
		noAuth:      true,
		out:         &grant,
	})
	if err != nil {
		return domain.TokenGrant{}, err
	}
	return grant, nil
}

func (c *Client) Register(ctx context.Context, profile domain.RegisterProfile) (*domain.User, error) {
	var user domain.User
	if err := c.postJSON(ctx, "/auth/register", "register", profile, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Me(ctx context.Context, tokenOverride string) (*domain.User, error) {
	var user domain.User
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/auth/me",
		operation:     "me",
		idempotent:    true,
		tokenOverride: tokenOverride,
		out:           &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateMe(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	var user domain.User
	if err := c.putJSON(ctx, "/auth/me", "update_me", patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ---- cases ----

func (c *Client) ListCases(ctx context.Context) ([]domain.Case, error) {
	var cases []domain.Case
	if err := c.getJSON(ctx, "/cases", "list_cases", &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Client) CreateCase(ctx context.Context, title, description string) (*domain.Case, error) {
	payload := map[string]string{"title": title}
	if description != "" {
		payload["description"] = description
	}
	var created domain.Case
	if err := c.postJSON(ctx, "/cases", "create_case", payload, &created, false); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	var out domain.Case
	if err := c.getJSON(ctx, "/cases/"+url.PathEscape(id), "get_case", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCase(ctx context.Context, id string, patch domain.CasePatch) (*domain.Case, error) {
	var out domain.Case
	if err := c.putJSON(ctx, "/cases/"+url.PathEscape(id), "update_case", patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssignCase(ctx context.Context, id, lawyerID, clientID string) (*domain.Case, error) {
	payload := map[string]string{}
	if lawyerID != "" {
		payload["lawyer_id"] = lawyerID
	}
	if clientID != "" {
		payload["client_id"] = clientID
	}
	var out domain.Case
	if err := c.postJSON(ctx, "/cases/"+url.PathEscape(id)+"/assign", "assign_case", payload, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCase(ctx context.Context, id string) error {
	return c.delete(ctx, "/cases/"+url.PathEscape(id), "delete_case")
}

// ---- chat ----

func (c *Client) ListMessages(ctx context.Context, caseID string) ([]domain.Message, error) {
	var messages []domain.Message
	if err := c.getJSON(ctx, "/cases/"+url.PathEscape(caseID)+"/chat", "list_messages", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, caseID, content string) ([]domain.Message, error) {
	var pair []domain.Message
	err := c.postJSON(ctx, "/cases/"+url.PathEscape(caseID)+"/chat", "send_message",
		map[string]string{"content": content}, &pair, false)
	if err != nil {
		return nil, err
	}
	if len(pair) != 2 {
		return nil, domain.WrapError(domain.ErrTemporary, "send_message",
			fmt.Errorf("expected [user, assistant] pair, got %d messages", len(pair)))
	}
	return pair, nil
}

func (c *Client) DeleteMessage(ctx context.Context, caseID, messageID string) error {
	path := "/cases/" + url.PathEscape(caseID) + "/chat/" + url.PathEscape(messageID)
	return c.delete(ctx, path, "delete_message")
}

// ---- documents ----

func (c *Client) ListDocuments(ctx context.Context, caseID string) ([]domain.Document, error) {
	var docs []domain.Document
	if err := c.getJSON(ctx, "/cases/"+url.PathEscape(caseID)+"/documents", "list_documents", &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, caseID, documentID string) (*domain.Document, error) {
	path := "/cases/" + url.PathEscape(caseID) + "/documents/" + url.PathEscape(documentID)
	var doc domain.Document
	if err := c.getJSON(ctx, path, "get_document", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) UploadDocument(ctx context.Context, caseID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	// The multipart body is buffered so the request carries an accurate
	// content type boundary; uploads are size-capped upstream.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	var doc domain.Document
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/cases/" + url.PathEscape(caseID) + "/documents/upload",
		operation:   "upload_document",
		contentType: writer.FormDataContentType(),
		body:        &buf,
		out:         &doc,
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) AnalyzeDocument(ctx context.Context, caseID, documentID string) (*domain.Document, error) {
	path := "/cases/" + url.PathEscape(caseID) + "/documents/" + url.PathEscape(documentID) + "/analyze"
	var doc domain.Document
	if err := c.postJSON(ctx, path, "analyze_document", struct{}{}, &doc, false); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, caseID, documentID string) error {
	path := "/cases/" + url.PathEscape(caseID) + "/documents/" + url.PathEscape(documentID)
	return c.delete(ctx, path, "delete_document")
}

// ---- users ----

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.getJSON(ctx, "/users", "list_users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(id), "get_user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var user domain.User
	if err := c.putJSON(ctx, "/users/"+url.PathEscape(id), "update_user", patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ---- helpers ----

func (c *Client) getJSON(ctx context.Context, path, operation string, out any) error {
	return c.do(ctx, request{
		method:     http.MethodGet,
		path:       path,
		operation:  operation,
		idempotent: true,
		out:        out,
	})
}

func (c *Client) postJSON(ctx context.Context, path, operation string, payload, out any, noAuth bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		operation:   operation,
		contentType: "application/json",
		body:        bytes.NewReader(body),
		noAuth:      noAuth,
		out:         out,
	})
}

func (c *Client) putJSON(ctx context.Context, path, operation string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	return c.do(ctx, request{
		method:      http.MethodPut,
		path:        path,
		operation:   operation,
		contentType: "application/json",
		body:        bytes.NewReader(body),
		out:         out,
	})
}

func (c *Client) delete(ctx context.Context, path, operation string) error {
	return c.do(ctx, request{
		method:    http.MethodDelete,
		path:      path,
		operation: operation,
	})
}
