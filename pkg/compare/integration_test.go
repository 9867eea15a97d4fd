package compare

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkoeck/branchdiff/pkg/git"
	"github.com/simonkoeck/branchdiff/pkg/model"
)

// testRepo is a throwaway repository with a master branch.
type testRepo struct {
	t   *testing.T
	dir string
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	r := &testRepo{t: t, dir: t.TempDir()}
	r.git("init", "-q", "-b", "master")
	return r
}

func (r *testRepo) git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	require.NoError(r.t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func (r *testRepo) write(path, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, path)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
}

func (r *testRepo) commit(msg string) {
	r.t.Helper()
	r.git("add", "-A")
	r.git("commit", "-q", "-m", msg)
}

func (r *testRepo) engine() *Engine {
	r.t.Helper()
	client, err := git.Open(context.Background(), r.dir, git.NewExecutorWithTimeout(r.dir, 30*time.Second))
	require.NoError(r.t, err)
	return NewEngine(client, Options{NoPull: true})
}

func (r *testRepo) assertRestored(branch, temp string) {
	r.t.Helper()
	assert.Equal(r.t, branch, r.git("rev-parse", "--abbrev-ref", "HEAD"))
	assert.Empty(r.t, r.git("branch", "--list", temp))
	assert.Empty(r.t, r.git("status", "--porcelain", "--untracked-files=no"))
	_, err := os.Stat(filepath.Join(r.dir, ".git", "MERGE_HEAD"))
	assert.True(r.t, os.IsNotExist(err), "merge still in progress")
}

func TestEngine_AttributeReorderIsCosmetic(t *testing.T) {
	r := newTestRepo(t)
	r.write("config.xml", "<root><item a=\"1\" b=\"2\"/></root>\n")
	r.commit("base")
	r.git("checkout", "-q", "-b", "development")
	r.write("config.xml", "<root><item b=\"2\" a=\"1\"/></root>\n")
	r.commit("reorder attributes")
	r.git("checkout", "-q", "master")

	rec := r.engine().Compare(context.Background(), "development", "master")

	require.Equal(t, model.StatusSuccess, rec.Status, rec.ErrorMessage)
	assert.Equal(t, "development-to-master", rec.TempBranch)
	require.Len(t, rec.Changes, 1)
	change := rec.Changes[0]
	assert.Equal(t, "config.xml", change.FilePath)
	assert.Equal(t, "XMLDiffer", change.Differencer)
	assert.False(t, change.HasSemanticChange)
	assert.False(t, change.HasConflict)
	assert.Equal(t, 1, change.FormatSpecific["attributes_reordered"])
	assert.Equal(t, 1, change.Summary.Additions)
	assert.Equal(t, 1, change.Summary.Deletions)
	r.assertRestored("master", rec.TempBranch)
}

func TestEngine_Conflict(t *testing.T) {
	r := newTestRepo(t)
	r.write("app.properties", "name=app\nport=80\n")
	r.commit("base")
	r.git("checkout", "-q", "-b", "feature")
	r.write("app.properties", "name=app\nport=8080\n")
	r.commit("feature port")
	r.git("checkout", "-q", "master")
	r.write("app.properties", "name=app\nport=9090\n")
	r.commit("master port")

	rec := r.engine().Compare(context.Background(), "feature", "master")

	require.Equal(t, model.StatusConflict, rec.Status, rec.ErrorMessage)
	require.Len(t, rec.Changes, 1)
	change := rec.Changes[0]
	assert.Equal(t, "app.properties", change.FilePath)
	assert.True(t, change.HasConflict)
	assert.True(t, change.HasSemanticChange)
	assert.Contains(t, change.ConflictContent, "<<<<<<<")
	require.Len(t, change.Detailed.Conflicts, 1)
	assert.Equal(t, "port=9090", change.Detailed.Conflicts[0].Ours)
	assert.Equal(t, "port=8080", change.Detailed.Conflicts[0].Theirs)
	r.assertRestored("master", rec.TempBranch)
}

func TestEngine_SameBranch(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "a\n")
	r.commit("base")

	rec := r.engine().Compare(context.Background(), "master", "master")

	assert.Equal(t, model.StatusSuccess, rec.Status, rec.ErrorMessage)
	assert.Equal(t, "master-to-master", rec.TempBranch)
	assert.Empty(t, rec.Changes)
	r.assertRestored("master", rec.TempBranch)
}

func TestEngine_MissingBranch(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "a\n")
	r.commit("base")
	r.git("checkout", "-q", "-b", "work")

	rec := r.engine().Compare(context.Background(), "nope", "master")

	assert.Equal(t, model.StatusError, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "nope")
	assert.Empty(t, rec.Changes)
	r.assertRestored("work", rec.TempBranch)
}

func TestEngine_PreexistingTempBranchSurvives(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "a\n")
	r.commit("base")
	r.git("branch", "feature")
	r.git("branch", "feature-to-master")

	rec := r.engine().Compare(context.Background(), "feature", "master")

	assert.Equal(t, model.StatusError, rec.Status)
	assert.Equal(t, "feature-to-master", r.git("branch", "--list", "--format=%(refname:short)", "feature-to-master"))
	assert.Equal(t, "master", r.git("rev-parse", "--abbrev-ref", "HEAD"))
}

func TestEngine_AddedDeletedAndRenamedFiles(t *testing.T) {
	r := newTestRepo(t)
	r.write("old.txt", "bye\n")
	r.write("docs/readme.md", "# docs\n")
	r.write("values.yaml", "a: 1\nb: 2\n")
	r.commit("base")
	r.git("checkout", "-q", "-b", "development")
	r.git("rm", "-q", "old.txt")
	r.write("new.yaml", "key: value\n")
	r.write("docs/readme.md", "# docs\nmore\n")
	r.write("values.yaml", "b: 2\na: 1\n")
	r.commit("changes")
	r.git("checkout", "-q", "master")

	e := r.engine()
	e.opts.Exclude = []string{"docs/**"}
	rec := e.Compare(context.Background(), "development", "master")

	require.Equal(t, model.StatusSuccess, rec.Status, rec.ErrorMessage)
	byPath := map[string]*model.ChangeRecord{}
	for _, c := range rec.Changes {
		byPath[c.FilePath] = c
	}
	require.Len(t, byPath, 3)

	assert.Equal(t, "", *byPath["new.yaml"].ContentBefore)
	assert.True(t, byPath["new.yaml"].HasSemanticChange)
	assert.Equal(t, "", *byPath["old.txt"].ContentAfter)
	assert.Equal(t, 1, byPath["old.txt"].Summary.Deletions)
	assert.False(t, byPath["values.yaml"].HasSemanticChange)
	assert.NotContains(t, byPath, "docs/readme.md")
	r.assertRestored("master", rec.TempBranch)
}

func TestEngine_DetachedHeadIsRestored(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "a\n")
	r.commit("base")
	r.git("branch", "feature")
	hash := r.git("rev-parse", "HEAD")
	r.git("checkout", "-q", "--detach")

	rec := r.engine().Compare(context.Background(), "feature", "master")

	assert.Equal(t, model.StatusSuccess, rec.Status, rec.ErrorMessage)
	assert.Equal(t, "HEAD", r.git("rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, hash, r.git("rev-parse", "HEAD"))
}

func TestEngine_CompareAll(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "a\n")
	r.commit("base")
	r.git("checkout", "-q", "-b", "development")
	r.write("a.txt", "b\n")
	r.commit("change")
	r.git("checkout", "-q", "master")

	records := r.engine().CompareAll(context.Background(), []model.BranchPair{
		{From: "development", To: "master"},
		{From: "master", To: "development"},
		{From: "missing", To: "master"},
	})

	require.Len(t, records, 3)
	assert.Len(t, records[0].Changes, 1)
	assert.Equal(t, model.StatusSuccess, records[1].Status)
	assert.Empty(t, records[1].Changes)
	assert.Equal(t, model.StatusError, records[2].Status)
	r.assertRestored("master", "development-to-master")
}
