// Package forge is a small GitHub REST client for the remote-forge
// operations the Command Handler Table dispatches (git_create_pr, git_get_pr,
// git_merge_pr, git_create_github_repo). The kernel treats the forge as an
// external collaborator (spec.md §1): this client supplies a thin,
// bearer-token-authenticated interface and nothing else — no polling,
// webhooks, or board sync.
//
// Shape grounded on internal/adapters/github/client.go's Client
// (bearer-token *http.Client, baseURL field overridable for tests via
// NewClientWithBaseURL); the PR/repo operations themselves are written fresh
// against original_source/git.rs's git_create_pr/git_create_github_repo
// request and response shapes.
package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const githubAPIURL = "https://api.github.com"

// Client is a minimal GitHub REST client.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a Client talking to the real GitHub API.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    githubAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL returns a Client pointed at an alternate base URL, for
// tests against an httptest.Server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PullRequest is the subset of the GitHub pull-request resource the kernel
// exposes through the Command Handler Table.
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
	Title   string `json:"title"`
	Merged  bool   `json:"merged"`
}

// Repository is the subset of the GitHub repository resource returned by
// CreateRepo.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

// CreatePRInput is the payload for CreatePR.
type CreatePRInput struct {
	Owner string
	Repo  string
	Head  string
	Base  string
	Title string
	Body  string
}

// CreatePR opens a pull request. Grounded on git.rs's git_create_pr.
func (c *Client) CreatePR(ctx context.Context, in CreatePRInput) (*PullRequest, error) {
	body := struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}{Title: in.Title, Body: in.Body, Head: in.Head, Base: in.Base}

	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", in.Owner, in.Repo)
	if err := c.doRequest(ctx, http.MethodPost, path, body, &pr); err != nil {
		return nil, fmt.Errorf("create PR: %w", err)
	}
	return &pr, nil
}

// GetPR fetches a pull request by number.
func (c *Client) GetPR(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, fmt.Errorf("get PR: %w", err)
	}
	return &pr, nil
}

// MergePR merges a pull request using the given merge method ("merge",
// "squash", or "rebase"; empty defaults to GitHub's own default).
func (c *Client) MergePR(ctx context.Context, owner, repo string, number int, method string) error {
	body := struct {
		MergeMethod string `json:"merge_method,omitempty"`
	}{MergeMethod: method}

	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, number)
	if err := c.doRequest(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("merge PR: %w", err)
	}
	return nil
}

// CreateRepoInput is the payload for CreateRepo.
type CreateRepoInput struct {
	Name    string
	Private bool
}

// CreateRepo creates a new repository under the authenticated user, with
// auto_init so it's clonable immediately. Grounded on git.rs's
// git_create_github_repo.
func (c *Client) CreateRepo(ctx context.Context, in CreateRepoInput) (*Repository, error) {
	body := struct {
		Name     string `json:"name"`
		Private  bool   `json:"private"`
		AutoInit bool   `json:"auto_init"`
	}{Name: in.Name, Private: in.Private, AutoInit: true}

	var repo Repository
	if err := c.doRequest(ctx, http.MethodPost, "/user/repos", body, &repo); err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	return &repo, nil
}

// doRequest issues an authenticated JSON request against the GitHub API.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}
