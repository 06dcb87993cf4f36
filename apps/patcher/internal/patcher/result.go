package patcher

// Outcome is what a single Patch call ended up doing.
type Outcome string

const (
	OutcomeArchived Outcome = "archived"
	OutcomeFork     Outcome = "fork"
	OutcomeNotFound Outcome = "not_found"
	OutcomeUpToDate Outcome = "up_to_date"
	OutcomeUpdated  Outcome = "updated"
	// OutcomePending means the fix already sits on the feature branch or in an
	// open pull request, so nothing new was written.
	OutcomePending Outcome = "pending"
)

// Result describes the outcome of patching one repository.
type Result struct {
	Outcome        Outcome
	Updated        bool // a commit was created during this run
	Branch         string
	CommitURL      string
	PullRequestURL string
}
