package patcher

import "fmt"

// Check selects how the patcher decides whether a workflow still needs the fix.
type Check string

const (
	// CheckYAML parses the workflow and inspects on.push.branches.
	CheckYAML Check = "yaml"
	// CheckSubstring looks for the legacy pattern anywhere in the raw text.
	CheckSubstring Check = "substring"
)

// Publish selects where the fix is committed.
type Publish string

const (
	// PublishPullRequest commits to a feature branch and opens a labelled pull request.
	PublishPullRequest Publish = "pull-request"
	// PublishDirect commits straight to the default branch.
	PublishDirect Publish = "direct"
)

const (
	DefaultTargetPath    = ".github/workflows/update-prettier.yml"
	DefaultLegacyPattern = "dependabot/npm_and_yarn"
	DefaultReplacement   = "renovate"
	DefaultBranchName    = "fix-update-prettier-workflow"
	DefaultLabel         = "maintenance"
	DefaultPRTitle       = `ci: fix branch name for "Update Prettier" workflow`
	DefaultCommitMessage = DefaultPRTitle + `

The workflow broke when we switched from Dependabot to Renovate`
)

// Config holds everything the patcher would otherwise hard-code. Zero fields
// take the defaults above; see WithDefaults.
type Config struct {
	TargetPath    string
	LegacyPattern string
	Replacement   string
	BranchName    string
	PRTitle       string
	PRBody        string
	CommitMessage string
	Label         string

	Check   Check
	Publish Publish

	// SkipForks ignores forked repositories in addition to archived ones.
	SkipForks bool
	// Reformat re-encodes the patched workflow through the YAML encoder.
	Reformat bool
}

// DefaultConfig returns the configuration for the update-prettier fix.
func DefaultConfig() Config {
	return Config{SkipForks: true}.WithDefaults()
}

// WithDefaults returns a copy of c with every empty field filled in.
func (c Config) WithDefaults() Config {
	if c.TargetPath == "" {
		c.TargetPath = DefaultTargetPath
	}
	if c.LegacyPattern == "" {
		c.LegacyPattern = DefaultLegacyPattern
	}
	if c.Replacement == "" {
		c.Replacement = DefaultReplacement
	}
	if c.BranchName == "" {
		c.BranchName = DefaultBranchName
	}
	if c.PRTitle == "" {
		c.PRTitle = DefaultPRTitle
	}
	if c.CommitMessage == "" {
		c.CommitMessage = DefaultCommitMessage
	}
	if c.Label == "" {
		c.Label = DefaultLabel
	}
	if c.Check == "" {
		c.Check = CheckYAML
	}
	if c.Publish == "" {
		c.Publish = PublishPullRequest
	}
	return c
}

// Validate rejects unknown strategies.
func (c Config) Validate() error {
	switch c.Check {
	case CheckYAML, CheckSubstring:
	default:
		return fmt.Errorf("unknown check %q (want %q or %q)", c.Check, CheckYAML, CheckSubstring)
	}
	switch c.Publish {
	case PublishPullRequest, PublishDirect:
	default:
		return fmt.Errorf("unknown publish mode %q (want %q or %q)", c.Publish, PublishPullRequest, PublishDirect)
	}
	return nil
}
