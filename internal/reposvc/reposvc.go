// Package reposvc implements the repository-lifecycle operations the spec's
// distillation dropped but original_source/git.rs still carries:
// git_clone_repo, git_open_local_repo, and git_create_github_repo. Grounded
// line-for-line on git.rs's functions of the same name, translated from
// Rust's Result<Repository, String> into idiomatic Go.
package reposvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hatch-sh/workspace-kernel/internal/credstore"
	"github.com/hatch-sh/workspace-kernel/internal/forge"
	"github.com/hatch-sh/workspace-kernel/internal/gitshim"
	"github.com/hatch-sh/workspace-kernel/internal/gitutil"
)

// Repository mirrors git.rs's Repository struct: everything the desktop UI
// needs to display a repo card after a clone, open, or forge-create.
type Repository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	CloneURL      string `json:"cloneUrl"`
	LocalPath     string `json:"localPath"`
	DefaultBranch string `json:"defaultBranch"`
	IsPrivate     bool   `json:"isPrivate"`
}

// Service bundles the credential source and forge client CloneRepo and
// CreateGitHubRepo need to authenticate against the remote.
type Service struct {
	Credentials credstore.Source
	Forge       *forge.Client
}

// New returns a Service. credentials may be nil, in which case clones are
// attempted unauthenticated (matching git.rs's behavior when
// get_access_token() returns None).
func New(credentials credstore.Source, forgeClient *forge.Client) *Service {
	return &Service{Credentials: credentials, Forge: forgeClient}
}

// CloneRepo clones repoURL into workspacesRoot/repoName. If a credential
// source is configured and the URL is an https://github.com/ URL, the token
// is embedded in the clone URL the same way git.rs does.
func (s *Service) CloneRepo(ctx context.Context, workspacesRoot, repoURL, repoName string) (*Repository, error) {
	if err := os.MkdirAll(workspacesRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create workspaces directory: %w", err)
	}

	localPath := filepath.Join(workspacesRoot, repoName)
	if _, err := os.Stat(localPath); err == nil {
		return nil, fmt.Errorf("repository %q already exists at %s", repoName, localPath)
	}

	cloneURL := s.authenticatedCloneURL(ctx, repoURL)

	if _, err := gitshim.RunIn(ctx, workspacesRoot, "clone", cloneURL, localPath); err != nil {
		return nil, fmt.Errorf("git clone failed: %w", err)
	}

	defaultBranch := gitutil.DefaultBranch(ctx, localPath)

	fullName, err := gitutil.ParseOwnerRepo(repoURL)
	if err != nil {
		fullName = repoName
	}

	return &Repository{
		ID:            uuid.NewString(),
		Name:          repoName,
		FullName:      fullName,
		CloneURL:      repoURL,
		LocalPath:     localPath,
		DefaultBranch: defaultBranch,
		IsPrivate:     false,
	}, nil
}

// authenticatedCloneURL rewrites an https://github.com/ URL to embed a
// resolved token, matching git.rs's get_access_token()-gated rewrite. Any
// failure to resolve a token, or a non-github.com/non-https URL, falls back
// to the verbatim URL.
func (s *Service) authenticatedCloneURL(ctx context.Context, repoURL string) string {
	if s.Credentials == nil {
		return repoURL
	}
	if !strings.HasPrefix(repoURL, "https://github.com/") {
		return repoURL
	}
	token, err := s.Credentials.Token(ctx)
	if err != nil {
		return repoURL
	}
	return strings.Replace(repoURL, "https://github.com/", fmt.Sprintf("https://%s@github.com/", token), 1)
}

// OpenLocalRepo opens an existing local repository, inferring its remote URL
// and default branch for display.
func (s *Service) OpenLocalRepo(ctx context.Context, path string) (*Repository, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return nil, fmt.Errorf("not a git repository: %s", path)
	}

	cloneURL := ""
	if out, err := gitshim.RunIn(ctx, path, "remote", "get-url", "origin"); err == nil {
		cloneURL = strings.TrimSpace(out)
	}

	name := filepath.Base(path)
	defaultBranch := gitutil.DefaultBranch(ctx, path)

	fullName := name
	if cloneURL != "" {
		if parsed, err := gitutil.ParseOwnerRepo(cloneURL); err == nil {
			fullName = parsed
		}
	}

	return &Repository{
		ID:            uuid.NewString(),
		Name:          name,
		FullName:      fullName,
		CloneURL:      cloneURL,
		LocalPath:     path,
		DefaultBranch: defaultBranch,
		IsPrivate:     false,
	}, nil
}

// CreateGitHubRepo creates a new repository via the forge, then clones it
// into workspacesRoot. Grounded on git.rs's git_create_github_repo.
func (s *Service) CreateGitHubRepo(ctx context.Context, workspacesRoot, name string, isPrivate bool) (*Repository, error) {
	if s.Credentials == nil {
		return nil, fmt.Errorf("not authenticated with GitHub; please sign in first")
	}
	token, err := s.Credentials.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("not authenticated with GitHub: %w", err)
	}

	created, err := s.Forge.CreateRepo(ctx, forge.CreateRepoInput{Name: name, Private: isPrivate})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(workspacesRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create workspaces directory: %w", err)
	}
	localPath := filepath.Join(workspacesRoot, name)

	cloneURL := strings.Replace(created.CloneURL, "https://github.com/", fmt.Sprintf("https://%s@github.com/", token), 1)
	if _, err := gitshim.RunIn(ctx, workspacesRoot, "clone", cloneURL, localPath); err != nil {
		return nil, fmt.Errorf("clone newly created repository: %w", err)
	}

	return &Repository{
		ID:            fmt.Sprintf("%d", created.ID),
		Name:          created.Name,
		FullName:      created.FullName,
		CloneURL:      created.CloneURL,
		LocalPath:     localPath,
		DefaultBranch: created.DefaultBranch,
		IsPrivate:     created.Private,
	}, nil
}
