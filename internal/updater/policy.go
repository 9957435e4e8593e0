package updater

import "github.com/nhle/issue-updater/internal/model"

// Policy decides which run-level failures fail the build. Per-issue
// failures never do.
type Policy struct {
	FailOnConnectionError bool
	FailOnQueryError      bool
	FailOnEmptyResult     bool
}

// PolicyFromConfig converts the configured policy flags.
func PolicyFromConfig(c model.PolicyConfig) Policy {
	return Policy{
		FailOnConnectionError: c.FailOnConnectionError,
		FailOnQueryError:      c.FailOnQueryError,
		FailOnEmptyResult:     c.FailOnEmptyResult,
	}
}

// Succeeded reports whether a run ending in status passes the build. A
// cancelled run never does.
func (p Policy) Succeeded(status model.RunStatus) bool {
	switch status {
	case model.RunConnectionFailed:
		return !p.FailOnConnectionError
	case model.RunQueryFailed:
		return !p.FailOnQueryError
	case model.RunEmpty:
		return !p.FailOnEmptyResult
	case model.RunCancelled:
		return false
	default:
		return true
	}
}
