// Package indexer implements the RepositoryAPI port against the indexer's
// REST collection endpoint.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.RepositoryAPI       = (*Client)(nil)
	_ driven.CredentialDirectory = (*Client)(nil)
)

const maxBodyBytes = 4 << 20

// StatusError is returned when the indexer answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("indexer returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("indexer returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the indexer REST API rooted at baseURL (e.g.
// http://localhost:8080/api/v1).
type Client struct {
	http    *http.Client
	baseURL *url.URL
	logger  *slog.Logger
}

// NewClient creates an indexer client whose transport is an in-memory
// httpcache, so list requests are revalidated with ETags instead of being
// refetched in full.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}
	return NewClientWithHTTPClient(httpClient, baseURL, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{http: httpClient, baseURL: u, logger: logger}, nil
}

// List fetches the whole collection. The server may answer with a bare array
// or with a {"repos": [...]} envelope.
func (c *Client) List(ctx context.Context) ([]model.Repository, error) {
	body, err := c.do(ctx, "list", http.MethodGet, "/repos", nil)
	if err != nil {
		return nil, err
	}

	dtos, err := decodeRepoList(body)
	if err != nil {
		c.logger.Error("indexer response decode failed", "op", "list", "error", err)
		return nil, fmt.Errorf("decoding repository list: %w", err)
	}

	repos := make([]model.Repository, 0, len(dtos))
	for _, d := range dtos {
		repos = append(repos, d.toModel())
	}
	return repos, nil
}

// Create posts a new record. It returns nil without error when the server did
// not echo a record with an id.
func (c *Client) Create(ctx context.Context, draft model.Draft) (*model.Repository, error) {
	body, err := c.do(ctx, "create", http.MethodPost, "/repos", newDraftDTO(draft))
	if err != nil {
		return nil, err
	}
	return c.decodeRecord("create", body)
}

// Update replaces the editable fields of the record with the given id.
func (c *Client) Update(ctx context.Context, id string, draft model.Draft) (*model.Repository, error) {
	body, err := c.do(ctx, "update", http.MethodPut, "/repos/"+url.PathEscape(id), newDraftDTO(draft))
	if err != nil {
		return nil, err
	}
	return c.decodeRecord("update", body)
}

// Delete removes the record with the given id. Any 2xx answer counts as success.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/repos/"+url.PathEscape(id), nil)
	return err
}

// CredentialNames lists the names of the credentials stored by the indexer.
func (c *Client) CredentialNames(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, "credentials", http.MethodGet, "/credentials", nil)
	if err != nil {
		return nil, err
	}

	var creds []credentialDTO
	if err := decodeListOrEnvelope(body, "credentials", &creds); err != nil {
		c.logger.Error("indexer response decode failed", "op", "credentials", "error", err)
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}

	names := make([]string, 0, len(creds))
	for _, cr := range creds {
		if cr.Name != "" {
			names = append(names, cr.Name)
		}
	}
	return names, nil
}

func (c *Client) decodeRecord(op string, body []byte) (*model.Repository, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var dto repoDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		// A non-object acknowledgement is not a record.
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			c.logger.Error("indexer response decode failed", "op", op, "error", err)
			return nil, fmt.Errorf("decoding %s response: %w", op, err)
		}
		return nil, nil
	}
	if dto.ID == "" {
		return nil, nil
	}

	repo := dto.toModel()
	return &repo, nil
}

// do sends one request and returns the response body of a 2xx answer. Every
// failure is logged before it is returned.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	u := c.baseURL.JoinPath(path).String()
	log := c.logger.With("op", op, "method", method, "url", u)

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Error("indexer request encode failed", "error", err)
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		log.Error("indexer request build failed", "error", err)
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("indexer request cancelled", "error", err)
			return nil, ctx.Err()
		}
		log.Error("indexer request failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("indexer response read failed", "status", resp.StatusCode, "error", err)
		return nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
		log.Error("indexer request rejected", "status", resp.StatusCode, "error", statusErr)
		return nil, fmt.Errorf("%s %s: %w", method, u, statusErr)
	}

	log.Debug("indexer request completed",
		"status", resp.StatusCode,
		"from_cache", resp.Header.Get(httpcache.XFromCache) == "1",
	)
	return body, nil
}

// errorMessage extracts a human readable message from an error body. The
// indexer uses {"error": ...}; other backends answer {"detail": ...} or
// {"message": ...}.
func errorMessage(body []byte) string {
	var env struct {
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Error != "":
			return env.Error
		case env.Detail != nil:
			if s, ok := env.Detail.(string); ok {
				return s
			}
			b, _ := json.Marshal(env.Detail)
			return string(b)
		case env.Message != "":
			return env.Message
		}
	}
	return strings.TrimSpace(string(body))
}
