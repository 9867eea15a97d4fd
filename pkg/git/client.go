package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/simonkoeck/branchdiff/pkg/logging"
)

// ErrPathNotFound is returned by Show when the path does not exist at the revision.
var ErrPathNotFound = errors.New("path not found at revision")

// Client exposes the repository operations a comparison needs. Mutations
// always go through the git CLI; object reads use go-git when the
// repository could be opened with it, and fall back to the CLI otherwise.
type Client struct {
	exec Executor
	root string
	repo *gogit.Repository
}

// NewClient returns a CLI-only client rooted at dir.
func NewClient(dir string, exec Executor) *Client {
	return &Client{exec: exec, root: dir}
}

// Open locates the repository containing dir and opens it.
func Open(ctx context.Context, dir string, exec Executor) (*Client, error) {
	out, err := exec.Output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	c := &Client{exec: exec, root: strings.TrimSpace(string(out))}

	repo, err := gogit.PlainOpenWithOptions(c.root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		logging.Debug("go-git could not open repository, using git CLI for reads", "root", c.root, "error", err)
	} else {
		c.repo = repo
	}
	return c, nil
}

// Root returns the working tree root.
func (c *Client) Root() string {
	return c.root
}

// CurrentRef returns the checked-out branch name, or the commit hash when
// HEAD is detached.
func (c *Client) CurrentRef(ctx context.Context) (string, error) {
	if c.repo != nil {
		head, err := c.repo.Head()
		if err == nil {
			if head.Name().IsBranch() {
				return head.Name().Short(), nil
			}
			return head.Hash().String(), nil
		}
		logging.Debug("go-git head lookup failed", "error", err)
	}

	out, err := c.exec.Output(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}
	out, err = c.exec.Output(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ResolveCommit resolves rev to a commit hash.
func (c *Client) ResolveCommit(ctx context.Context, rev string) (string, error) {
	out, err := c.exec.Output(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// BranchExists reports whether a local branch with that name exists.
func (c *Client) BranchExists(ctx context.Context, name string) bool {
	return c.exec.Run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name) == nil
}

// Checkout switches the working tree to ref.
func (c *Client) Checkout(ctx context.Context, ref string) error {
	return c.exec.Run(ctx, "checkout", ref)
}

// CreateBranch creates name at HEAD and switches to it.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	return c.exec.Run(ctx, "checkout", "-b", name)
}

// DeleteBranch force-deletes a local branch.
func (c *Client) DeleteBranch(ctx context.Context, name string) error {
	return c.exec.Run(ctx, "branch", "-D", name)
}

// Merge merges branch into HEAD without committing and without
// fast-forwarding, leaving either a staged merge or a conflicted index.
func (c *Client) Merge(ctx context.Context, branch string) error {
	return c.exec.Run(ctx, "merge", "--no-commit", "--no-ff", branch)
}

// AbortMerge aborts an in-progress merge.
func (c *Client) AbortMerge(ctx context.Context) error {
	return c.exec.Run(ctx, "merge", "--abort")
}

// ResetHard resets index and working tree to rev.
func (c *Client) ResetHard(ctx context.Context, rev string) error {
	return c.exec.Run(ctx, "reset", "--hard", rev)
}

// Pull fast-forwards the current branch from remote.
func (c *Client) Pull(ctx context.Context, remote, branch string) error {
	return c.exec.Run(ctx, "pull", "--ff-only", remote, branch)
}

// HasRemote reports whether a remote with that name is configured.
func (c *Client) HasRemote(ctx context.Context, name string) bool {
	if c.repo != nil {
		_, err := c.repo.Remote(name)
		return err == nil
	}
	return c.exec.Run(ctx, "remote", "get-url", name) == nil
}

// Status lists tracked paths that differ from HEAD or are unmerged.
func (c *Client) Status(ctx context.Context) ([]StatusEntry, error) {
	out, err := c.exec.Output(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=no")
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	return ParseStatus(out), nil
}

// Show returns the content of path as of rev.
func (c *Client) Show(ctx context.Context, rev, path string) ([]byte, error) {
	if c.repo != nil {
		content, err := c.showObject(rev, path)
		if err == nil || errors.Is(err, ErrPathNotFound) {
			return content, err
		}
		logging.Debug("go-git read failed, falling back to git show", "rev", rev, "path", path, "error", err)
	}

	out, err := c.exec.Output(ctx, "show", rev+":"+path)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && isMissingPath(cmdErr.Stderr) {
			return nil, ErrPathNotFound
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) showObject(rev, path string) ([]byte, error) {
	hash, err := c.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}
	commit, err := c.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	file, err := commit.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, ErrPathNotFound
	} else if err != nil {
		return nil, err
	}
	r, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func isMissingPath(stderr string) bool {
	return strings.Contains(stderr, "does not exist in") ||
		strings.Contains(stderr, "exists on disk, but not in")
}
