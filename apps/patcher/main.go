package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	githubadapter "github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/adapters/github"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/cli"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/config"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/gitrepo"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/patcher"
	platformgithub "github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/platform/github"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/platform/telemetry"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	log, err := newLogger()
	if err != nil {
		log.Error("config load failed", "error", err)
		return 1
	}

	opts, err := cli.Parse(args, os.Stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return 0
		}
		log.Error("invalid arguments", "error", err)
		return 2
	}

	env, err := config.Load(ctx)
	if err != nil {
		log.Error("config load failed", "error", err)
		return 1
	}
	opts.Apply(env)
	if err := env.PatcherConfig().Validate(); err != nil {
		log.Error("invalid patch configuration", "error", err)
		return 2
	}

	tel, err := telemetry.New(ctx, env.OTelEnabled, env.ServiceName)
	if err != nil {
		log.Error("telemetry init failed", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// --- GitHub adapter ---
	// Token auth (local dev / CI): set GITHUB_TOKEN.
	// App auth:                    set GITHUB_APP_ID, GITHUB_APP_INSTALLATION_ID,
	//                              and GITHUB_APP_PRIVATE_KEY_PATH.
	auth := env.Auth()
	ghClient, err := platformgithub.NewClient(ctx, auth)
	if err != nil {
		log.Error("github client init failed", "error", err)
		return 1
	}
	if auth.UsesApp() {
		log.Info("github: using app auth", "appID", auth.AppID, "installationID", auth.InstallationID)
	} else {
		log.Info("github: using token auth", "url", ghClient.BaseURL.String())
	}

	var gr gitrepo.Client = githubadapter.New(ghClient)
	var recorder *gitrepo.RecordingClient
	if env.Patch.DryRun {
		recorder = gitrepo.NewRecordingClient(gr)
		gr = recorder
		log.Info("dry run: writes are recorded, not sent")
	}

	p, err := patcher.New(gr, env.PatcherConfig(), log)
	if err != nil {
		log.Error("invalid patch configuration", "error", err)
		return 1
	}

	failed := patchAll(ctx, gr, p, opts.Repos, log)

	if recorder != nil {
		for _, put := range recorder.Puts() {
			log.Info("dry run: would commit", "repo", put.Owner+"/"+put.Repo, "branch", put.Branch, "path", put.Path)
		}
		for _, pr := range recorder.PullRequests() {
			log.Info("dry run: would open pull request", "head", pr.Head, "base", pr.Base, "title", pr.Title)
		}
	}

	if failed > 0 {
		log.Error("some repositories failed", "failed", failed, "total", len(opts.Repos))
		return 1
	}
	return 0
}

// newLogger loads .env first because it may set LOG_FORMAT and LOG_LEVEL.
// The logger is usable even when the error is non-nil.
func newLogger() (*slog.Logger, error) {
	err := config.LoadDotEnv()
	return logging.New(), err
}

// patchAll processes repos one at a time and returns how many failed.
func patchAll(ctx context.Context, gr gitrepo.Client, p *patcher.Patcher, repos []cli.RepoRef, log *slog.Logger) int {
	failed := 0
	for _, ref := range repos {
		if ctx.Err() != nil {
			log.Warn("interrupted, skipping remaining repositories", "next", ref.String())
			return failed + 1
		}
		repo, err := gr.GetRepository(ctx, ref.Owner, ref.Name)
		if err != nil {
			log.Error("get repository failed", "repo", ref.String(), "error", err)
			failed++
			continue
		}
		res, err := p.Patch(ctx, *repo)
		if err != nil {
			log.Error("patch failed", "repo", ref.String(), "error", err)
			failed++
			continue
		}
		log.Info("done", "repo", ref.String(), "outcome", res.Outcome,
			"branch", res.Branch, "commit", res.CommitURL, "pr", res.PullRequestURL)
	}
	return failed
}
