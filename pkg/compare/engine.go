// Package compare simulates merging one branch into another on a disposable
// branch and classifies every file the merge touches.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/simonkoeck/branchdiff/pkg/differ"
	"github.com/simonkoeck/branchdiff/pkg/git"
	"github.com/simonkoeck/branchdiff/pkg/logging"
	"github.com/simonkoeck/branchdiff/pkg/model"
)

// DefaultRemote is the remote branches are synchronised from.
const DefaultRemote = "origin"

// Repository is the version-control surface the engine drives.
// *git.Client implements it.
type Repository interface {
	differ.ContentSource

	CurrentRef(ctx context.Context) (string, error)
	ResolveCommit(ctx context.Context, rev string) (string, error)
	BranchExists(ctx context.Context, name string) bool
	HasRemote(ctx context.Context, name string) bool
	Status(ctx context.Context) ([]git.StatusEntry, error)

	Checkout(ctx context.Context, ref string) error
	CreateBranch(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string) error
	Merge(ctx context.Context, branch string) error
	AbortMerge(ctx context.Context) error
	ResetHard(ctx context.Context, rev string) error
	Pull(ctx context.Context, remote, branch string) error
}

var _ Repository = (*git.Client)(nil)

// Options tune a comparison run.
type Options struct {
	// NoPull skips synchronising branches with the remote.
	NoPull bool
	// Remote defaults to DefaultRemote.
	Remote string
	// Exclude drops paths matching any of these doublestar patterns.
	Exclude []string
}

// Engine runs comparisons against one working tree. It is not safe for
// concurrent use: every comparison mutates the checkout.
type Engine struct {
	repo Repository
	opts Options
}

// NewEngine creates an engine for repo.
func NewEngine(repo Repository, opts Options) *Engine {
	if opts.Remote == "" {
		opts.Remote = DefaultRemote
	}
	return &Engine{repo: repo, opts: opts}
}

// session tracks what a single comparison changed in the repository.
type session struct {
	original string
	temp     string
	created  bool
	merging  bool
}

// Compare merges from into to on the branch "{from}-to-{to}" and reports
// every affected file. It never fails: errors are recorded in the returned
// record, and the repository is returned to the ref that was checked out
// before the call.
func (e *Engine) Compare(ctx context.Context, from, to string) (rec *model.ComparisonRecord) {
	rec = model.NewComparisonRecord(from, to)
	rec.StartedAt = time.Now()
	log := logging.With("from", from, "to", to)

	defer func() {
		rec.Duration = time.Since(rec.StartedAt)
		log.Info("comparison finished", "status", rec.Status, "files", len(rec.Changes), "duration", rec.Duration)
	}()

	original, err := e.repo.CurrentRef(ctx)
	if err != nil {
		rec.Fail(fmt.Sprintf("cannot determine the current branch: %v", err))
		return rec
	}

	s := &session{original: original, temp: rec.TempBranch}
	defer func() {
		if r := recover(); r != nil {
			log.Error("comparison panicked", "panic", r)
			rec.Fail(fmt.Sprintf("unexpected failure: %v", r))
		}
		if err := e.cleanup(ctx, s); err != nil {
			log.Warn("cleanup incomplete", "error", err)
		}
	}()

	e.sync(ctx, to, from)

	for _, branch := range []string{from, to} {
		if _, err := e.repo.ResolveCommit(ctx, branch); err != nil {
			rec.Fail(fmt.Sprintf("branch '%s' does not exist", branch))
			return rec
		}
	}
	if e.repo.BranchExists(ctx, s.temp) {
		rec.Fail(fmt.Sprintf("temporary branch '%s' already exists; remove it and retry", s.temp))
		return rec
	}

	if err := e.repo.Checkout(ctx, to); err != nil {
		rec.Fail(fmt.Sprintf("checkout '%s': %v", to, err))
		return rec
	}
	if err := e.repo.CreateBranch(ctx, s.temp); err != nil {
		rec.Fail(fmt.Sprintf("create branch '%s': %v", s.temp, err))
		return rec
	}
	s.created = true

	log.Debug("merging", "temp_branch", s.temp)
	s.merging = true
	mergeErr := e.repo.Merge(ctx, from)

	entries, err := e.repo.Status(ctx)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}

	if mergeErr != nil {
		unmerged := e.paths(entries, git.StatusEntry.IsUnmerged)
		if len(unmerged) == 0 {
			rec.Fail(fmt.Sprintf("merge of '%s' into '%s' failed: %v", from, to, mergeErr))
			return rec
		}
		rec.Status = model.StatusConflict
		e.analyze(ctx, rec, unmerged, true)
		return rec
	}

	e.analyze(ctx, rec, e.paths(entries, git.StatusEntry.IsChanged), false)
	return rec
}

// CompareAll runs the pairs one after another. Pairs not started before ctx
// is cancelled are recorded as errors.
func (e *Engine) CompareAll(ctx context.Context, pairs []model.BranchPair) []*model.ComparisonRecord {
	records := make([]*model.ComparisonRecord, 0, len(pairs))
	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			rec := model.NewComparisonRecord(p.From, p.To)
			rec.Fail(fmt.Sprintf("not started: %v", err))
			records = append(records, rec)
			continue
		}
		logging.Info("comparing branches", "pair", p.String(), "index", i+1, "total", len(pairs))
		records = append(records, e.Compare(ctx, p.From, p.To))
	}
	return records
}

// sync fast-forwards each branch from the remote. Failures only warn.
func (e *Engine) sync(ctx context.Context, branches ...string) {
	if e.opts.NoPull {
		return
	}
	if !e.repo.HasRemote(ctx, e.opts.Remote) {
		logging.Debug("no remote configured, skipping sync", "remote", e.opts.Remote)
		return
	}
	for _, b := range branches {
		if err := e.repo.Checkout(ctx, b); err != nil {
			logging.Warn("could not check out branch for sync", "branch", b, "error", err)
			continue
		}
		if err := e.repo.Pull(ctx, e.opts.Remote, b); err != nil {
			logging.Warn("could not pull branch", "branch", b, "remote", e.opts.Remote, "error", err)
		}
	}
}

// paths selects matching entries, drops excluded paths and de-duplicates
// while keeping status order.
func (e *Engine) paths(entries []git.StatusEntry, keep func(git.StatusEntry) bool) []string {
	selected := lo.FilterMap(entries, func(entry git.StatusEntry, _ int) (string, bool) {
		return entry.Path, keep(entry) && !e.excluded(entry.Path)
	})
	return lo.Uniq(selected)
}

func (e *Engine) excluded(path string) bool {
	for _, pattern := range e.opts.Exclude {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func (e *Engine) analyze(ctx context.Context, rec *model.ComparisonRecord, paths []string, conflicted bool) {
	for _, p := range paths {
		d := differ.ForPath(p)
		change := d.Analyze(ctx, e.repo, p, conflicted)
		if change.ErrorMessage != "" {
			logging.Warn("file analysis incomplete", "path", p, "error", change.ErrorMessage)
		}
		rec.Changes = append(rec.Changes, change)
	}
}

// cleanup undoes whatever s records, even when ctx is already cancelled.
func (e *Engine) cleanup(ctx context.Context, s *session) error {
	ctx = context.WithoutCancel(ctx)
	var result *multierror.Error

	if s.merging {
		if err := e.repo.AbortMerge(ctx); err != nil {
			logging.Debug("merge --abort failed, resetting", "error", err)
			if err := e.repo.ResetHard(ctx, "HEAD"); err != nil {
				result = multierror.Append(result, fmt.Errorf("reset working tree: %w", err))
			}
		}
	}
	if err := e.repo.Checkout(ctx, s.original); err != nil {
		result = multierror.Append(result, fmt.Errorf("restore '%s': %w", s.original, err))
	}
	if s.created && e.repo.BranchExists(ctx, s.temp) {
		if err := e.repo.DeleteBranch(ctx, s.temp); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete '%s': %w", s.temp, err))
		}
	}
	return result.ErrorOrNil()
}
