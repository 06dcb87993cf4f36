package gitrepo

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when the requested repository, file or ref does not exist.
type NotFoundError struct {
	Owner string
	Repo  string
	Path  string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s/%s not found", e.Owner, e.Repo)
	}
	return fmt.Sprintf("%s not found in %s/%s", e.Path, e.Owner, e.Repo)
}

// BranchExistsError is returned by CreateBranch when the branch is already present.
type BranchExistsError struct {
	Branch string
}

// Error implements the error interface.
func (e BranchExistsError) Error() string {
	return fmt.Sprintf("branch %q already exists", e.Branch)
}

// PullRequestExistsError is returned by CreatePR when an open pull request
// already exists for the head branch.
type PullRequestExistsError struct {
	Head string
}

// Error implements the error interface.
func (e PullRequestExistsError) Error() string {
	return fmt.Sprintf("a pull request already exists for %q", e.Head)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsBranchExists reports whether err wraps a BranchExistsError.
func IsBranchExists(err error) bool {
	var be BranchExistsError
	return errors.As(err, &be)
}

// IsPullRequestExists reports whether err wraps a PullRequestExistsError.
func IsPullRequestExists(err error) bool {
	var pe PullRequestExistsError
	return errors.As(err, &pe)
}
