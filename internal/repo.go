package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// TidyDirName holds the schema and templates, relative to the repository
// toplevel.
const TidyDirName = ".git-tidy"

// Repo is the local repository the tool operates in. It provides the
// toplevel path, the current branch, and the origin remote, all read
// through go-git rather than by shelling out.
type Repo struct {
	repo *git.Repository
	root string
}

// OpenRepo walks up from dir looking for a .git directory and opens the
// repository found there.
func OpenRepo(dir string) (*Repo, error) {
	root, err := findRepoRoot(dir)
	if err != nil {
		return nil, err
	}

	fs := osfs.New(filepath.Join(root, git.GitDirName))
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(root)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repo{repo: repo, root: root}, nil
}

func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		info, err := os.Stat(filepath.Join(dir, git.GitDirName))
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository (or any parent): %s", dir)
		}
		dir = parent
	}
}

func (r *Repo) Root() string {
	return r.root
}

// TidyDir returns the directory holding the commit schema and templates.
func (r *Repo) TidyDir() string {
	return filepath.Join(r.root, TidyDirName)
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// OriginOwnerRepo parses the owner and repository name out of the origin
// remote URL. Both ssh and https remote forms are handled.
func (r *Repo) OriginOwnerRepo() (string, string, error) {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf(`%w: must have a remote named "origin"`, ErrGitHubConfig)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf(`%w: remote "origin" has no URL`, ErrGitHubConfig)
	}

	return ParseOwnerRepo(urls[0])
}

// ParseOwnerRepo extracts "owner", "name" from a git remote URL such as
// git@github.com:owner/name.git or https://github.com/owner/name.git.
func ParseOwnerRepo(url string) (string, string, error) {
	path := url
	switch {
	case strings.Contains(url, "://"):
		_, path, _ = strings.Cut(url, "://")
		if _, rest, ok := strings.Cut(path, "/"); ok {
			path = rest
		}
	case strings.Contains(url, ":"):
		_, path, _ = strings.Cut(url, ":")
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: cannot parse owner/repo from remote URL %q", ErrGitHubConfig, url)
	}
	return parts[0], parts[1], nil
}
