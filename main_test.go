package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkoeck/branchdiff/pkg/exitcode"
	"github.com/simonkoeck/branchdiff/pkg/git"
	"github.com/simonkoeck/branchdiff/pkg/model"
	"github.com/simonkoeck/branchdiff/pkg/output"
)

// withExecutor makes every run use exec until the test ends.
func withExecutor(t *testing.T, exec git.Executor) {
	t.Helper()
	orig := newExecutor
	newExecutor = func(string, time.Duration) git.Executor { return exec }
	t.Cleanup(func() { newExecutor = orig })
}

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String()
}

func TestExecute_NotGitRepo(t *testing.T) {
	mock := git.NewMockExecutor()
	mock.SetResponse("rev-parse", nil, errors.New("fatal: not a git repository"))
	withExecutor(t, mock)

	code, out := run(t, "-r", t.TempDir(), "-n")

	assert.Equal(t, exitcode.NotGitRepo, code)
	assert.Contains(t, out, "is not inside a git repository")
	assert.Len(t, mock.Calls(), 1, "nothing runs after the repository check")
}

func TestExecute_ConfigErrors(t *testing.T) {
	mock := git.NewMockExecutor()
	mock.SetResponse("rev-parse", []byte("/tmp/repo\n"), nil)
	withExecutor(t, mock)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--frobnicate"}, "unknown flag"},
		{"bad format", []string{"--format", "pdf"}, "invalid 'Format'"},
		{"bad pair", []string{"-n", "-p", "nocolon"}, "nocolon"},
		{"missing config file", []string{"-c", filepath.Join(t.TempDir(), "nope.yaml")}, "read config"},
		{"positional argument", []string{"extra"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := run(t, tt.args...)
			assert.Equal(t, exitcode.ConfigError, code)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestExecute_ModelsEachPairWithMock(t *testing.T) {
	mock := git.NewMockExecutor()
	mock.SetResponse("rev-parse --show-toplevel", []byte("/nonexistent/repo\n"), nil)
	mock.SetResponse("symbolic-ref", []byte("master\n"), nil)
	mock.SetResponse("rev-parse --verify", nil, errors.New("unknown revision"))
	withExecutor(t, mock)

	report := filepath.Join(t.TempDir(), "r.json")
	code, _ := run(t, "-n", "-p", "ghost:master", "-o", report, "--format", "json")

	assert.Equal(t, exitcode.ComparisonError, code)
	f, err := os.Open(report)
	require.NoError(t, err)
	defer f.Close()
	records, err := output.ReadJSON(f)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusError, records[0].Status)
}

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

func (r *testRepo) commit(files map[string]string, msg string) {
	r.t.Helper()
	for path, content := range files {
		full := filepath.Join(r.dir, path)
		require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
	}
	r.git("add", "-A")
	r.git("commit", "-q", "-m", msg)
}

func TestExecute_CleanMergeWritesReport(t *testing.T) {
	r := newTestRepo(t)
	r.commit(map[string]string{"app.xml": `<app><db host="a" port="1"/></app>`}, "base")
	r.git("checkout", "-q", "-b", "development")
	r.commit(map[string]string{"app.xml": `<app><db port="1" host="a"/></app>`}, "reorder")
	r.git("checkout", "-q", "master")

	reportPath := filepath.Join(t.TempDir(), "reports", "out.md")
	code, out := run(t, "-r", r.dir, "-n", "-p", "development:master", "-o", reportPath, "--format", "md")

	assert.Equal(t, exitcode.Success, code, out)
	assert.Contains(t, out, "development → master")
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### [FORMATTING] app.xml")
	assert.Equal(t, "master", r.git("rev-parse", "--abbrev-ref", "HEAD"))
}

func TestExecute_ConflictExitCode(t *testing.T) {
	r := newTestRepo(t)
	r.commit(map[string]string{"app.properties": "port=80\n"}, "base")
	r.git("checkout", "-q", "-b", "feature")
	r.commit(map[string]string{"app.properties": "port=8080\n"}, "feature port")
	r.git("checkout", "-q", "master")
	r.commit(map[string]string{"app.properties": "port=9090\n"}, "master port")

	code, out := run(t, "-r", r.dir, "-n", "-p", "feature:master", "-o", "-", "--format", "json")

	assert.Equal(t, exitcode.ConflictsFound, code)
	records, err := output.ReadJSON(strings.NewReader(out))
	require.NoError(t, err, "stdout holds only the report")
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusConflict, records[0].Status)
	assert.Empty(t, r.git("branch", "--list", "feature-to-master"))
}

func TestExecute_SameBranchPairIsClean(t *testing.T) {
	r := newTestRepo(t)
	r.commit(map[string]string{"a.txt": "a\n"}, "base")
	r.git("branch", "development")

	code, out := run(t, "-r", r.dir, "-n", "-p", "master:master", "-p", "development:master", "-o", "-", "--format", "json")

	assert.Equal(t, exitcode.Success, code)
	records, err := output.ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.StatusSuccess, records[0].Status)
	assert.Empty(t, records[0].Changes)
	assert.Equal(t, model.StatusSuccess, records[1].Status)
	assert.Equal(t, "master", r.git("rev-parse", "--abbrev-ref", "HEAD"))
	assert.Empty(t, r.git("branch", "--list", "master-to-master"))
}

func TestExecute_DefaultOutputPath(t *testing.T) {
	r := newTestRepo(t)
	r.commit(map[string]string{"a.txt": "a\n"}, "base")
	r.git("branch", "development")

	wd, err := os.Getwd()
	require.NoError(t, err)
	out := t.TempDir()
	require.NoError(t, os.Chdir(out))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	code, _ := run(t, "-r", r.dir, "-n", "-p", "development:master")

	assert.Equal(t, exitcode.Success, code)
	_, err = os.Stat(filepath.Join(out, filepath.Base(r.dir)+"_comparison_report.ipynb"))
	assert.NoError(t, err)
}

func TestRender(t *testing.T) {
	rec := model.NewComparisonRecord("development", "master")
	rec.Changes = append(rec.Changes, model.NewChangeRecord("a.yaml", ".yaml", "YAMLDiffer", false))
	in := filepath.Join(t.TempDir(), "results.json")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, output.WriteJSON(f, []*model.ComparisonRecord{rec}))
	require.NoError(t, f.Close())

	code, out := run(t, "render", in)

	require.Equal(t, exitcode.Success, code, out)
	data, err := os.ReadFile(strings.TrimSuffix(in, ".json") + ".md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Git Branch Comparison Report")
	assert.Contains(t, string(data), "a.yaml")
}

func TestRenderOutputPath(t *testing.T) {
	assert.Equal(t, "out/results.md", renderOutputPath("out/results.json", "md"))
	assert.Equal(t, "results.ipynb", renderOutputPath("results", "ipynb"))
	assert.Equal(t, "out/results.report.json", renderOutputPath("out/results.json", "json"))
}

func TestRender_JSONKeepsInput(t *testing.T) {
	rec := model.NewComparisonRecord("development", "master")
	in := filepath.Join(t.TempDir(), "results.json")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, output.WriteJSON(f, []*model.ComparisonRecord{rec}))
	require.NoError(t, f.Close())
	original, err := os.ReadFile(in)
	require.NoError(t, err)

	code, out := run(t, "render", in, "--format", "json")

	require.Equal(t, exitcode.Success, code, out)
	after, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, original, after)
	_, err = os.Stat(strings.TrimSuffix(in, ".json") + ".report.json")
	assert.NoError(t, err)
}

func TestRender_Errors(t *testing.T) {
	code, _ := run(t, "render", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, exitcode.ConfigError, code)

	code, out := run(t, "render", "x.json", "--format", "pdf")
	assert.Equal(t, exitcode.ConfigError, code)
	assert.Contains(t, out, `unknown report format "pdf"`)

	code, _ = run(t, "render")
	assert.Equal(t, exitcode.ConfigError, code)
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	in := filepath.Join(t.TempDir(), "results.json")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, output.WriteJSON(f, []*model.ComparisonRecord{model.NewComparisonRecord("a", "b")}))
	require.NoError(t, f.Close())

	code, out := run(t, "browse", in)

	assert.Equal(t, exitcode.ConfigError, code)
	assert.Contains(t, out, "interactive terminal")
}
