// Package github implements the ComposeLocator and ComposeFetcher ports using
// the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var (
	_ driven.ComposeLocator = (*Client)(nil)
	_ driven.ComposeFetcher = (*Client)(nil)
)

// Client implements the driven.ComposeLocator and driven.ComposeFetcher ports
// for GitHub-hosted repositories.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, PAT auth when token is set)
//
// An empty token makes unauthenticated requests, which only see public repositories.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FileExists reports whether path exists as a file on branch of the GitHub
// repository addressed by repoURL. Returns driven.ErrUnsupportedHost for
// repositories hosted elsewhere.
func (c *Client) FileExists(ctx context.Context, repoURL, branch, path string) (bool, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return false, err
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("fetching %s from %s/%s@%s: %w", path, owner, repo, branch, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/contents")

	// A directory at path answers with a listing instead of a file.
	return file != nil && file.GetType() == "file", nil
}

// FetchFile returns the decoded content of the file at path on branch. A
// missing path or a directory yields driven.ErrFileNotFound.
func (c *Client) FetchFile(ctx context.Context, repoURL, branch, path string) ([]byte, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s on %s/%s@%s: %w", path, owner, repo, branch, driven.ErrFileNotFound)
		}
		return nil, fmt.Errorf("fetching %s from %s/%s@%s: %w", path, owner, repo, branch, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/contents")

	if file == nil || file.GetType() != "file" {
		return nil, fmt.Errorf("%s on %s/%s@%s is not a file: %w", path, owner, repo, branch, driven.ErrFileNotFound)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s from %s/%s@%s: %w", path, owner, repo, branch, err)
	}
	return []byte(content), nil
}

// ParseRepoURL extracts owner and repository name from a github.com URL in
// https or scp-like (git@github.com:owner/repo.git) form.
func ParseRepoURL(raw string) (string, string, error) {
	s := strings.TrimSpace(raw)

	var host, p string
	if rest, ok := strings.CutPrefix(s, "git@"); ok {
		var found bool
		host, p, found = strings.Cut(rest, ":")
		if !found {
			return "", "", fmt.Errorf("parse %q: %w", raw, driven.ErrUnsupportedHost)
		}
	} else {
		u, err := url.Parse(s)
		if err != nil {
			return "", "", fmt.Errorf("parse %q: %w", raw, err)
		}
		host, p = u.Hostname(), u.Path
	}

	if !strings.EqualFold(host, "github.com") && !strings.EqualFold(host, "www.github.com") {
		return "", "", fmt.Errorf("host %q: %w", host, driven.ErrUnsupportedHost)
	}

	return splitRepo(strings.TrimSuffix(strings.Trim(p, "/"), ".git"))
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
