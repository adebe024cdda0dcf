package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ganot/neosearch/internal/gateway"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultUploadField = "pdf_file"
	maxResponseBody    = 16 << 20
)

// Config configures the NeoSearch HTTP client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// UploadField is the multipart form field carrying the file.
	UploadField string
	// HTTPClient replaces the default client; its transport is wrapped with
	// bearer authentication.
	HTTPClient *http.Client
}

// Client talks to the NeoSearch backend over HTTP. It implements gateway.Gateway.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	uploadField string
	logger      *slog.Logger
}

var _ gateway.Gateway = (*Client)(nil)

// NewClient creates a client for the backend at cfg.BaseURL.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	rt := httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	httpClient.Transport = &bearerTransport{base: rt, token: cfg.Token}

	field := cfg.UploadField
	if field == "" {
		field = defaultUploadField
	}

	return &Client{
		baseURL:     base,
		http:        httpClient,
		uploadField: field,
		logger:      logger,
	}, nil
}

// ListSessions fetches every remote session. The backend may answer with a
// list of {id, title} objects or a mapping keyed by id.
func (c *Client) ListSessions(ctx context.Context) ([]gateway.RemoteSession, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/chatwindows", nil, nil, "", &raw); err != nil {
		return nil, err
	}
	sessions, err := decodeSessionList(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gateway.ErrBadResponse, err)
	}
	return sessions, nil
}

// CreateSession creates an empty session.
func (c *Client) CreateSession(ctx context.Context) (*gateway.CreatedSession, error) {
	var out gateway.CreatedSession
	if err := c.do(ctx, http.MethodPost, "/create-chatwindow", nil, nil, "", &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: missing chatwindow_uuid", gateway.ErrBadResponse)
	}
	return &out, nil
}

// SelectSession makes the session current on the backend and returns its documents.
func (c *Client) SelectSession(ctx context.Context, sessionID string) (*gateway.SelectedSession, error) {
	var out gateway.SelectedSession
	query := url.Values{"chatwindow_uuid": {sessionID}}
	if err := c.do(ctx, http.MethodPost, "/select-chatwindow", query, nil, "", &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = sessionID
	}
	if out.Documents == nil {
		out.Documents = []gateway.RemoteDocument{}
	}
	return &out, nil
}

// DeleteSession removes a session and its documents.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	query := url.Values{"chatwindow_uuid": {sessionID}}
	return c.do(ctx, http.MethodDelete, "/delete-chatwindow", query, nil, "", nil)
}

// RenameSession updates a session title.
func (c *Client) RenameSession(ctx context.Context, sessionID, title string) error {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return err
	}
	path := "/chatwindows/" + url.PathEscape(sessionID) + "/update-title"
	return c.do(ctx, http.MethodPatch, path, nil, bytes.NewReader(body), "application/json", nil)
}

// DeleteDocument removes one document from a session.
func (c *Client) DeleteDocument(ctx context.Context, sessionID, docID string) error {
	query := url.Values{"chatwindow_uuid": {sessionID}, "doc_uuid": {docID}}
	return c.do(ctx, http.MethodDelete, "/delete-doc", query, nil, "", nil)
}

// UploadDocument streams one file as multipart form data.
func (c *Client) UploadDocument(ctx context.Context, sessionID, fileName string, content io.Reader) (*gateway.UploadedDocument, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile(c.uploadField, fileName)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	var out gateway.UploadedDocument
	query := url.Values{"chatwindow_uuid": {sessionID}}
	if err := c.do(ctx, http.MethodPost, "/upload", query, pr, form.FormDataContentType(), &out); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	if out.DocID == "" {
		return nil, fmt.Errorf("%w: missing doc_uuid", gateway.ErrBadResponse)
	}
	return &out, nil
}

// Search runs a query against one session.
func (c *Client) Search(ctx context.Context, req gateway.SearchRequest) (*gateway.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out gateway.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/search", nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []gateway.SearchHit{}
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	endpoint := c.baseURL.JoinPath(path)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	id := requestID(ctx)
	req.Header.Set(RequestIDHeader, id)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("gateway request failed", "method", method, "path", path, "request_id", id, "error", err)
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", gateway.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", gateway.ErrBadResponse, err)
	}
	return nil
}

func decodeSessionList(raw json.RawMessage) ([]gateway.RemoteSession, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []gateway.RemoteSession{}, nil
	}

	if trimmed[0] == '[' {
		var list []gateway.RemoteSession
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var byID map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &byID); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]gateway.RemoteSession, 0, len(ids))
	for _, id := range ids {
		entry := gateway.RemoteSession{ID: id}
		value := bytes.TrimSpace(byID[id])
		switch {
		case len(value) > 0 && value[0] == '"':
			if err := json.Unmarshal(value, &entry.Title); err != nil {
				return nil, err
			}
		default:
			if err := json.Unmarshal(value, &entry); err != nil {
				return nil, err
			}
			entry.ID = id
		}
		out = append(out, entry)
	}
	return out, nil
}
