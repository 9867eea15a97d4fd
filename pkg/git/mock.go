package git

import (
	"context"
	"strings"
	"sync"
)

// MockCall records a single call to the mock executor.
type MockCall struct {
	Method string
	Args   []string
}

// String renders the call as a git command line.
func (c MockCall) String() string {
	return strings.Join(c.Args, " ")
}

// MockResponse configures the response for a mock call.
type MockResponse struct {
	Output []byte
	Error  error
}

// MockExecutor implements Executor for testing purposes.
// It records all calls and returns configurable responses.
type MockExecutor struct {
	mu        sync.Mutex
	calls     []MockCall
	responses map[string]MockResponse // keyed by joined args prefix, e.g. "merge" or "merge --abort"
	defaults  MockResponse            // default response if no match

	// Hooks for custom behavior; they take precedence over configured responses.
	OnRun    func(ctx context.Context, args []string) error
	OnOutput func(ctx context.Context, args []string) ([]byte, error)
}

// NewMockExecutor creates a new MockExecutor with no default responses.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		responses: make(map[string]MockResponse),
	}
}

// SetResponse configures the response for commands starting with prefix.
// The longest matching prefix wins.
func (m *MockExecutor) SetResponse(prefix string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prefix] = MockResponse{Output: output, Error: err}
}

// SetDefaultResponse sets the response when no specific match is found.
func (m *MockExecutor) SetDefaultResponse(output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = MockResponse{Output: output, Error: err}
}

// SetDefaultError sets a default error for all commands.
func (m *MockExecutor) SetDefaultError(err error) {
	m.SetDefaultResponse(nil, err)
}

// Calls returns a copy of all recorded calls.
func (m *MockExecutor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CommandLines returns every recorded call rendered as a command line.
func (m *MockExecutor) CommandLines() []string {
	calls := m.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Reset clears all recorded calls.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Run records the call and returns the configured response.
func (m *MockExecutor) Run(ctx context.Context, args ...string) error {
	m.recordCall("Run", args)

	if m.OnRun != nil {
		return m.OnRun(ctx, args)
	}

	resp := m.getResponse(args)
	return resp.Error
}

// Output records the call and returns the configured response.
func (m *MockExecutor) Output(ctx context.Context, args ...string) ([]byte, error) {
	m.recordCall("Output", args)

	if m.OnOutput != nil {
		return m.OnOutput(ctx, args)
	}

	resp := m.getResponse(args)
	return resp.Output, resp.Error
}

func (m *MockExecutor) recordCall(method string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Args: args})
}

func (m *MockExecutor) getResponse(args []string) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	line := strings.Join(args, " ")
	best := -1
	var resp MockResponse
	for prefix, r := range m.responses {
		if (line == prefix || strings.HasPrefix(line, prefix+" ")) && len(prefix) > best {
			best = len(prefix)
			resp = r
		}
	}
	if best >= 0 {
		return resp
	}
	return m.defaults
}

// Common error types for testing
var (
	ErrNotGitRepo = &CommandError{Args: []string{"rev-parse"}, ExitCode: 128, Stderr: "fatal: not a git repository"}
	ErrConflict   = &CommandError{Args: []string{"merge"}, ExitCode: 1, Stderr: "CONFLICT (content): Merge conflict in file.txt"}
	ErrUnknownRev = &CommandError{Args: []string{"rev-parse"}, ExitCode: 128, Stderr: "fatal: Needed a single revision"}
	ErrTimeout    = context.DeadlineExceeded
)
