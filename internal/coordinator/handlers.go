package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hatch-sh/workspace-kernel/internal/forge"
	"github.com/hatch-sh/workspace-kernel/internal/gitshim"
	"github.com/hatch-sh/workspace-kernel/internal/gitutil"
	"github.com/hatch-sh/workspace-kernel/internal/reposvc"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

// HandlerDeps bundles the collaborators the Command Handler Table's rows
// call into. Every row ultimately bottoms out in internal/gitshim,
// internal/gitutil, internal/worktree, internal/reposvc, or internal/forge —
// the Coordinator itself never shells out directly.
type HandlerDeps struct {
	Worktree *worktree.Manager
	Repos    *reposvc.Service
	Forge    *forge.Client
}

// NewHandlerTable returns the closed command -> HandlerFunc map described in
// spec.md §4.5.3, generalized from executor/backend.go's "one interface, two
// backends" Backend shape into "one signature, many named commands". Unknown
// command names are handled by Coordinator.dispatch itself
// (unsupportedMessage), not by this table.
func NewHandlerTable(deps HandlerDeps) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"git_create_workspace_branch": deps.gitCreateWorkspaceBranch,
		"git_delete_workspace_branch": deps.gitDeleteWorkspaceBranch,
		"git_list_worktrees":          deps.gitListWorktrees,
		"git_prune_worktrees":         deps.gitPruneWorktrees,

		"git_status":     deps.gitStatus,
		"git_diff":       deps.gitDiff,
		"git_diff_stats": deps.gitDiffStats,
		"git_file_diff":  deps.gitFileDiff,

		"git_commit": deps.gitCommit,
		"git_push":   deps.gitPush,

		"git_clone_repo":         deps.gitCloneRepo,
		"git_open_local_repo":    deps.gitOpenLocalRepo,
		"git_create_github_repo": deps.gitCreateGitHubRepo,

		"git_create_pr": deps.gitCreatePR,
		"git_get_pr":    deps.gitGetPR,
		"git_merge_pr":  deps.gitMergePR,
	}
}

// decodeParams unmarshals an untyped JSON payload into T. An empty payload
// decodes to the zero value. A schema mismatch is the "invalid parameters"
// error category from spec.md §7.
func decodeParams[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, fmt.Errorf("invalid params: %w", err)
	}
	return v, nil
}

func encodeResult(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return b, nil
}

// --- Worktree / branch ---

type workspaceIDParams struct {
	WorkspaceID string `json:"workspaceId"`
}

// gitCreateWorkspaceBranch delegates to the Lifecycle Manager's Create,
// which provisions a locked worktree for the branch (spec.md §4's control
// flow: "for create_workspace_branch ... the handler delegates to the
// Lifecycle Manager"). Returns the branch name, matching
// original_source/git.rs's git_create_workspace_branch signature.
func (d HandlerDeps) gitCreateWorkspaceBranch(ctx context.Context, repoRoot string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[workspaceIDParams](params)
	if err != nil {
		return nil, err
	}
	result, err := d.Worktree.Create(ctx, repoRoot, p.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return encodeResult(result.BranchName)
}

type branchNameParams struct {
	BranchName   string `json:"branchName"`
	WorktreePath string `json:"worktreePath"`
}

// gitDeleteWorkspaceBranch delegates to the Lifecycle Manager's Remove,
// tearing down the worktree and its branch together.
func (d HandlerDeps) gitDeleteWorkspaceBranch(ctx context.Context, repoRoot string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[branchNameParams](params)
	if err != nil {
		return nil, err
	}
	worktreePath := p.WorktreePath
	if worktreePath == "" {
		worktreePath = filepath.Join(repoRoot, "worktrees", strings.TrimPrefix(p.BranchName, "workspace/"))
	}
	if err := d.Worktree.Remove(ctx, repoRoot, worktreePath, p.BranchName); err != nil {
		return nil, err
	}
	return encodeResult(nil)
}

func (d HandlerDeps) gitListWorktrees(ctx context.Context, repoRoot string, _ json.RawMessage) (json.RawMessage, error) {
	infos, err := d.Worktree.List(ctx, repoRoot)
	if err != nil {
		return nil, err
	}
	return encodeResult(infos)
}

func (d HandlerDeps) gitPruneWorktrees(ctx context.Context, repoRoot string, _ json.RawMessage) (json.RawMessage, error) {
	if err := d.Worktree.Prune(ctx, repoRoot); err != nil {
		return nil, err
	}
	return encodeResult(nil)
}

// --- Working-copy state ---

// GitStatus mirrors original_source/git.rs's GitStatus struct.
type GitStatus struct {
	Branch    string   `json:"branch"`
	Ahead     int      `json:"ahead"`
	Behind    int      `json:"behind"`
	Staged    []string `json:"staged"`
	Modified  []string `json:"modified"`
	Untracked []string `json:"untracked"`
}

func (d HandlerDeps) gitStatus(ctx context.Context, repoRoot string, _ json.RawMessage) (json.RawMessage, error) {
	branchOut, err := gitshim.RunIn(ctx, repoRoot, "branch", "--show-current")
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	branch := strings.TrimSpace(branchOut)

	statusOut, err := gitshim.RunIn(ctx, repoRoot, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	status := GitStatus{
		Branch:    branch,
		Staged:    []string{},
		Modified:  []string{},
		Untracked: []string{},
	}
	for _, entry := range gitutil.ClassifyStatus(statusOut) {
		switch entry.Status {
		case gitutil.StatusStaged:
			status.Staged = append(status.Staged, entry.Path)
		case gitutil.StatusModified:
			status.Modified = append(status.Modified, entry.Path)
		case gitutil.StatusUntracked:
			status.Untracked = append(status.Untracked, entry.Path)
		}
	}

	status.Ahead, status.Behind = gitutil.AheadBehind(ctx, repoRoot, branch)

	return encodeResult(status)
}

func (d HandlerDeps) gitDiff(ctx context.Context, repoRoot string, _ json.RawMessage) (json.RawMessage, error) {
	staged, err := gitshim.RunIn(ctx, repoRoot, "diff", "--cached")
	if err != nil {
		return nil, fmt.Errorf("get staged diff: %w", err)
	}
	unstaged, err := gitshim.RunIn(ctx, repoRoot, "diff")
	if err != nil {
		return nil, fmt.Errorf("get unstaged diff: %w", err)
	}
	return encodeResult(staged + "\n" + unstaged)
}

// FileChange mirrors original_source/git.rs's FileChange struct.
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    string `json:"status"` // modified, added, deleted, renamed, untracked
}

func (d HandlerDeps) gitDiffStats(ctx context.Context, repoRoot string, _ json.RawMessage) (json.RawMessage, error) {
	statusOut, err := gitshim.RunIn(ctx, repoRoot, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	fileStatuses := map[string]string{}
	for _, line := range strings.Split(statusOut, "\n") {
		if len(line) < 3 {
			continue
		}
		index, worktreeState, file := line[0], line[1], line[3:]
		status := "modified"
		switch {
		case index == '?' && worktreeState == '?':
			status = "untracked"
		case index == 'A':
			status = "added"
		case index == 'D' || worktreeState == 'D':
			status = "deleted"
		case index == 'R':
			status = "renamed"
		}
		fileStatuses[file] = status
	}

	numstatOut, err := gitshim.RunIn(ctx, repoRoot, "diff", "--numstat", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("get diff numstat: %w", err)
	}

	var changes []FileChange
	for _, line := range strings.Split(numstatOut, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		additions := atoiOrZero(parts[0])
		deletions := atoiOrZero(parts[1])
		path := parts[2]

		status, ok := fileStatuses[path]
		if !ok {
			status = "modified"
		}
		delete(fileStatuses, path)

		changes = append(changes, FileChange{Path: path, Additions: additions, Deletions: deletions, Status: status})
	}

	for path, status := range fileStatuses {
		if status != "untracked" {
			continue
		}
		additions := 0
		if content, err := os.ReadFile(filepath.Join(repoRoot, path)); err == nil {
			additions = len(strings.Split(string(content), "\n"))
		}
		changes = append(changes, FileChange{Path: path, Additions: additions, Status: status})
	}

	if changes == nil {
		changes = []FileChange{}
	}
	return encodeResult(changes)
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// FileDiff mirrors original_source/git.rs's FileDiff struct.
type FileDiff struct {
	Path       string `json:"path"`
	OldContent string `json:"oldContent"`
	NewContent string `json:"newContent"`
	Language   string `json:"language"`
	IsNewFile  bool   `json:"isNewFile"`
	IsDeleted  bool   `json:"isDeleted"`
}

type filePathParams struct {
	FilePath string `json:"filePath"`
}

func (d HandlerDeps) gitFileDiff(ctx context.Context, repoRoot string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[filePathParams](params)
	if err != nil {
		return nil, err
	}

	fullPath := p.FilePath
	if !strings.HasPrefix(fullPath, repoRoot) {
		fullPath = filepath.Join(repoRoot, p.FilePath)
	}
	relPath, err := filepath.Rel(repoRoot, fullPath)
	if err != nil {
		relPath = p.FilePath
	}

	statusOut, _ := gitshim.RunIn(ctx, repoRoot, "status", "--porcelain", relPath)
	isNewFile := strings.HasPrefix(statusOut, "??") || strings.HasPrefix(statusOut, "A ")
	isDeleted := strings.HasPrefix(statusOut, " D") || strings.HasPrefix(statusOut, "D ")

	oldContent := ""
	if !isNewFile {
		if out, err := gitshim.RunIn(ctx, repoRoot, "show", "HEAD:"+relPath); err == nil {
			oldContent = out
		}
	}

	newContent := ""
	if !isDeleted {
		if content, err := os.ReadFile(fullPath); err == nil {
			newContent = string(content)
		}
	}

	return encodeResult(FileDiff{
		Path:       relPath,
		OldContent: oldContent,
		NewContent: newContent,
		Language:   languageForExt(filepath.Ext(fullPath)),
		IsNewFile:  isNewFile,
		IsDeleted:  isDeleted,
	})
}

// languageForExt matches original_source/git.rs's extension match arms,
// duplicated here (rather than imported from internal/filetree) because this
// table's FileDiff is a distinct wire type from filetree.Content and the two
// packages have no other reason to depend on each other.
func languageForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "rs":
		return "rust"
	case "ts", "tsx":
		return "typescript"
	case "js", "jsx":
		return "javascript"
	case "py":
		return "python"
	case "json":
		return "json"
	case "toml":
		return "toml"
	case "yaml", "yml":
		return "yaml"
	case "md":
		return "markdown"
	case "html":
		return "html"
	case "css":
		return "css"
	case "scss", "sass":
		return "scss"
	case "sql":
		return "sql"
	case "sh", "bash":
		return "bash"
	case "go":
		return "go"
	case "java":
		return "java"
	case "kt":
		return "kotlin"
	case "swift":
		return "swift"
	case "c", "h":
		return "c"
	case "cpp", "cc", "hpp":
		return "cpp"
	case "xml":
		return "xml"
	case "svg":
		return "svg"
	default:
		return "plaintext"
	}
}

// --- History mutations ---

type commitParams struct {
	Message string `json:"message"`
}

func (d HandlerDeps) gitCommit(ctx context.Context, repoRoot string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[commitParams](params)
	if err != nil {
		return nil, err
	}

	if _, err := gitshim.RunIn(ctx, repoRoot, "add", "-A"); err != nil {
		return nil, fmt.Errorf("stage changes: %w", err)
	}

	statusOut, err := gitshim.RunIn(ctx, repoRoot, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("check status: %w", err)
	}
	if strings.TrimSpace(statusOut) == "" {
		return encodeResult("Nothing to commit")
	}

	if _, err := gitshim.RunIn(ctx, repoRoot, "commit", "-m", p.Message); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	hashOut, err := gitshim.RunIn(ctx, repoRoot, "rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("get commit hash: %w", err)
	}
	return encodeResult(strings.TrimSpace(hashOut))
}

type pushParams struct {
	Branch string `json:"branch"`
}

func (d HandlerDeps) gitPush(ctx context.Context, repoRoot string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[pushParams](params)
	if err != nil {
		return nil, err
	}
	if _, err := gitshim.RunIn(ctx, repoRoot, "push", "-u", "origin", p.Branch); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	return encodeResult(nil)
}

// --- Repository lifecycle ---

type cloneRepoParams struct {
	WorkspacesRoot string `json:"workspacesRoot"`
	RepoURL        string `json:"repoUrl"`
	RepoName       string `json:"repoName"`
}

func (d HandlerDeps) gitCloneRepo(ctx context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[cloneRepoParams](params)
	if err != nil {
		return nil, err
	}
	repo, err := d.Repos.CloneRepo(ctx, p.WorkspacesRoot, p.RepoURL, p.RepoName)
	if err != nil {
		return nil, err
	}
	return encodeResult(repo)
}

type openLocalRepoParams struct {
	Path string `json:"path"`
}

func (d HandlerDeps) gitOpenLocalRepo(ctx context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[openLocalRepoParams](params)
	if err != nil {
		return nil, err
	}
	repo, err := d.Repos.OpenLocalRepo(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	return encodeResult(repo)
}

type createGitHubRepoParams struct {
	WorkspacesRoot string `json:"workspacesRoot"`
	Name           string `json:"name"`
	IsPrivate      bool   `json:"isPrivate"`
}

func (d HandlerDeps) gitCreateGitHubRepo(ctx context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[createGitHubRepoParams](params)
	if err != nil {
		return nil, err
	}
	repo, err := d.Repos.CreateGitHubRepo(ctx, p.WorkspacesRoot, p.Name, p.IsPrivate)
	if err != nil {
		return nil, err
	}
	return encodeResult(repo)
}

// --- Remote forge (external collaborator) ---

type createPRParams struct {
	RepoFullName string `json:"repoFullName"`
	HeadBranch   string `json:"headBranch"`
	BaseBranch   string `json:"baseBranch"`
	Title        string `json:"title"`
	Body         string `json:"body"`
}

func splitOwnerRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repoFullName %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

func (d HandlerDeps) gitCreatePR(ctx context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[createPRParams](params)
	if err != nil {
		return nil, err
	}
	owner, repo, err := splitOwnerRepo(p.RepoFullName)
	if err != nil {
		return nil, err
	}
	pr, err := d.Forge.CreatePR(ctx, forge.CreatePRInput{
		Owner: owner, Repo: repo, Head: p.HeadBranch, Base: p.BaseBranch, Title: p.Title, Body: p.Body,
	})
	if err != nil {
		return nil, err
	}
	return encodeResult(pr.HTMLURL)
}

type getPRParams struct {
	RepoFullName string `json:"repoFullName"`
	Number       int    `json:"number"`
}

func (d HandlerDeps) gitGetPR(ctx context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[getPRParams](params)
	if err != nil {
		return nil, err
	}
	owner, repo, err := splitOwnerRepo(p.RepoFullName)
	if err != nil {
		return nil, err
	}
	pr, err := d.Forge.GetPR(ctx, owner, repo, p.Number)
	if err != nil {
		return nil, err
	}
	return encodeResult(pr)
}

type mergePRParams struct {
	RepoFullName string `json:"repoFullName"`
	Number       int    `json:"number"`
	MergeMethod  string `json:"mergeMethod"`
}

func (d HandlerDeps) gitMergePR(ctx context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	p, err := decodeParams[mergePRParams](params)
	if err != nil {
		return nil, err
	}
	owner, repo, err := splitOwnerRepo(p.RepoFullName)
	if err != nil {
		return nil, err
	}
	if err := d.Forge.MergePR(ctx, owner, repo, p.Number, p.MergeMethod); err != nil {
		return nil, err
	}
	return encodeResult(nil)
}
