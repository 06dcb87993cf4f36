// Package patcher rewrites the trigger branch filter of the "Update Prettier"
// workflow from the Dependabot naming convention to the Renovate one.
//
// A Patcher handles one repository per Patch call: read the workflow, decide
// whether it still needs the fix, and publish the rewritten file either
// directly or through a feature branch and pull request.
package patcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/gitrepo"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/yamlutil"
)

const instrumentationName = "github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/patcher"

// Patcher applies the workflow fix to repositories through a gitrepo.Client.
type Patcher struct {
	gr       gitrepo.Client
	cfg      Config
	log      *slog.Logger
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// New creates a Patcher. Empty config fields take their defaults.
func New(gr gitrepo.Client, cfg Config, log *slog.Logger) (*Patcher, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	outcomes, err := otel.Meter(instrumentationName).Int64Counter(
		"patcher.outcomes",
		metric.WithDescription("Repositories processed, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create outcome counter: %w", err)
	}
	return &Patcher{
		gr:       gr,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(instrumentationName),
		outcomes: outcomes,
	}, nil
}

// Config returns the effective configuration.
func (p *Patcher) Config() Config {
	return p.cfg
}

// Patch runs the read-check-mutate-publish cycle against one repository.
// Skips (archived, fork, missing file, already fixed) are reported through
// Result.Outcome with a nil error. Client failures are returned wrapped.
func (p *Patcher) Patch(ctx context.Context, repo gitrepo.Repository) (res *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "patcher.Patch", trace.WithAttributes(
		attribute.String("repository", repo.FullName()),
		attribute.String("publish", string(p.cfg.Publish)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
			p.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(res.Outcome))))
		}
		span.End()
	}()

	return p.patch(ctx, repo)
}

func (p *Patcher) patch(ctx context.Context, repo gitrepo.Repository) (*Result, error) {
	log := p.log.With("repo", repo.FullName())
	path := p.cfg.TargetPath

	if repo.Archived {
		log.Info("repository is archived, ignoring", "url", repo.HTMLURL)
		return &Result{Outcome: OutcomeArchived}, nil
	}
	if repo.Fork && p.cfg.SkipForks {
		log.Info("repository is a fork, ignoring", "url", repo.HTMLURL)
		return &Result{Outcome: OutcomeFork}, nil
	}

	fc, err := p.gr.GetFile(ctx, repo.Owner, repo.Name, path, "")
	if err != nil {
		if gitrepo.IsNotFound(err) {
			log.Info("workflow does not exist", "path", path, "url", repo.HTMLURL)
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	patched, ok, err := p.rewrite(fc.Content)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	if !ok {
		log.Info("workflow already up to date", "path", path, "url", repo.HTMLURL)
		return &Result{Outcome: OutcomeUpToDate}, nil
	}

	if p.cfg.Publish == PublishDirect {
		commit, err := p.put(ctx, repo, fc.SHA, repo.DefaultBranch, patched)
		if err != nil {
			return nil, err
		}
		log.Info("workflow updated", "path", path, "branch", repo.DefaultBranch, "commit", commit.HTMLURL)
		return &Result{
			Outcome:   OutcomeUpdated,
			Updated:   true,
			Branch:    repo.DefaultBranch,
			CommitURL: commit.HTMLURL,
		}, nil
	}

	return p.publishPullRequest(ctx, log, repo, fc.SHA, patched)
}

// publishPullRequest stages the fix on the feature branch and opens a
// labelled pull request for it. An existing branch is reused; its copy of the
// workflow is re-read because it may already carry the fix.
func (p *Patcher) publishPullRequest(
	ctx context.Context,
	log *slog.Logger,
	repo gitrepo.Repository,
	sha, patched string,
) (*Result, error) {
	path := p.cfg.TargetPath

	base, err := p.baseSHA(ctx, repo)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	commitNeeded := true

	ref, err := p.gr.CreateBranch(ctx, repo.Owner, repo.Name, p.cfg.BranchName, base)
	switch {
	case err == nil:
		res.Branch = ref.BranchName()
		log.Info("branch created", "branch", res.Branch, "sha", base)
	case gitrepo.IsBranchExists(err):
		res.Branch = p.cfg.BranchName
		log.Info("branch already exists, reusing it", "branch", res.Branch)

		onBranch, err := p.gr.GetFile(ctx, repo.Owner, repo.Name, path, res.Branch)
		if gitrepo.IsNotFound(err) {
			// Stale branch without the workflow: add it as a new file.
			log.Info("workflow missing on branch, adding it", "branch", res.Branch)
			sha = ""
			break
		}
		if err != nil {
			return nil, fmt.Errorf("get %s on %s: %w", path, res.Branch, err)
		}
		rewritten, ok, err := p.rewrite(onBranch.Content)
		if err != nil {
			return nil, fmt.Errorf("check %s on %s: %w", path, res.Branch, err)
		}
		if ok {
			sha, patched = onBranch.SHA, rewritten
		} else {
			log.Info("workflow already fixed on branch", "branch", res.Branch)
			commitNeeded = false
		}
	default:
		return nil, fmt.Errorf("create branch %s: %w", p.cfg.BranchName, err)
	}

	if commitNeeded {
		commit, err := p.put(ctx, repo, sha, res.Branch, patched)
		if err != nil {
			return nil, err
		}
		res.Updated = true
		res.CommitURL = commit.HTMLURL
		log.Info("workflow updated", "path", path, "branch", res.Branch, "commit", commit.HTMLURL)
	}

	pr, err := p.gr.CreatePR(ctx, repo.Owner, repo.Name, gitrepo.CreatePRRequest{
		Title: p.cfg.PRTitle,
		Body:  p.cfg.PRBody,
		Head:  res.Branch,
		Base:  repo.DefaultBranch,
	})
	if err != nil {
		if gitrepo.IsPullRequestExists(err) {
			log.Info("pull request already open", "branch", res.Branch)
			res.Outcome = OutcomePending
			if res.Updated {
				res.Outcome = OutcomeUpdated
			}
			return res, nil
		}
		return nil, fmt.Errorf("create pull request: %w", err)
	}
	res.PullRequestURL = pr.HTMLURL
	res.Outcome = OutcomeUpdated

	if err := p.gr.AddLabels(ctx, repo.Owner, repo.Name, pr.Number, []string{p.cfg.Label}); err != nil {
		return nil, fmt.Errorf("label pull request #%d: %w", pr.Number, err)
	}

	log.Info("pull request opened", "pr", pr.HTMLURL, "label", p.cfg.Label, "commit", res.CommitURL)
	return res, nil
}

func (p *Patcher) baseSHA(ctx context.Context, repo gitrepo.Repository) (string, error) {
	branches, err := p.gr.ListBranches(ctx, repo.Owner, repo.Name)
	if err != nil {
		return "", fmt.Errorf("list branches: %w", err)
	}
	for _, b := range branches {
		if b.Name == repo.DefaultBranch {
			return b.SHA, nil
		}
	}
	return "", fmt.Errorf("default branch %q not found in %s", repo.DefaultBranch, repo.FullName())
}

func (p *Patcher) put(ctx context.Context, repo gitrepo.Repository, sha, branch, content string) (*gitrepo.Commit, error) {
	commit, err := p.gr.PutFile(ctx, repo.Owner, repo.Name, gitrepo.PutFileRequest{
		Path:    p.cfg.TargetPath,
		SHA:     sha,
		Branch:  branch,
		Content: content,
		Message: p.cfg.CommitMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", p.cfg.TargetPath, err)
	}
	return commit, nil
}

// rewrite returns the patched content and true when content still needs the
// fix. It returns false when the legacy pattern is gone.
func (p *Patcher) rewrite(content string) (string, bool, error) {
	needed, err := p.needsUpdate(content)
	if err != nil || !needed {
		return "", false, err
	}

	patched := strings.ReplaceAll(content, p.cfg.LegacyPattern, p.cfg.Replacement)
	if p.cfg.Reformat {
		doc, err := yamlutil.ParseNode(patched)
		if err != nil {
			return "", false, err
		}
		if patched, err = yamlutil.MarshalNode(doc); err != nil {
			return "", false, err
		}
	}
	if patched == content {
		return "", false, nil
	}
	return patched, true, nil
}

func (p *Patcher) needsUpdate(content string) (bool, error) {
	if p.cfg.Check == CheckSubstring {
		return strings.Contains(content, p.cfg.LegacyPattern), nil
	}

	doc, err := yamlutil.ParseNode(content)
	if err != nil {
		return false, err
	}
	node, err := yamlutil.GetNode(doc, "on", "push", "branches")
	if err != nil {
		// No push branch filter, nothing to fix.
		return false, nil //nolint:nilerr // missing key is not an error here
	}
	branches, err := yamlutil.ScalarValues(node)
	if err != nil {
		return false, fmt.Errorf("on.push.branches: %w", err)
	}
	for _, b := range branches {
		if strings.Contains(b, p.cfg.LegacyPattern) {
			return true, nil
		}
	}
	return false, nil
}
