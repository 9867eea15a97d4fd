// Package exitcode defines the process exit codes of branchdiff.
package exitcode

import "github.com/simonkoeck/branchdiff/pkg/output"

const (
	// Success indicates every comparison merged cleanly.
	Success = 0

	// ConflictsFound indicates at least one simulated merge conflicted.
	ConflictsFound = 1

	// ComparisonError indicates at least one comparison could not run.
	ComparisonError = 2

	// ConfigError indicates invalid flags, configuration or pairs.
	ConfigError = 3

	// ReportError indicates the report could not be written.
	ReportError = 4

	// NotGitRepo indicates the command was run outside a git repository.
	// This matches git's convention for this error.
	NotGitRepo = 128

	// Interrupted indicates the run was cancelled by a signal.
	Interrupted = 130
)

// FromSummary picks the exit code for a finished run. Failures outrank
// conflicts.
func FromSummary(s output.RunSummary) int {
	switch {
	case s.Failed > 0:
		return ComparisonError
	case s.Conflicted > 0:
		return ConflictsFound
	default:
		return Success
	}
}
