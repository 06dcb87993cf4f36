// Package config loads the patcher's settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/patcher"
	platformgithub "github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/platform/github"
)

// Env is the process environment as understood by the patcher.
type Env struct {
	GitHub GitHub `env:",prefix=GITHUB_"`
	Patch  Patch  `env:",prefix=PATCH_"`

	OTelEnabled bool   `env:"OTEL_ENABLED,default=false"`
	ServiceName string `env:"OTEL_SERVICE_NAME,default=update-prettier-patcher"`
}

// GitHub holds API credentials. App credentials take precedence over the token.
type GitHub struct {
	APIURL            string `env:"API_URL"`
	Token             string `env:"TOKEN"`
	AppID             int64  `env:"APP_ID"`
	AppInstallationID int64  `env:"APP_INSTALLATION_ID"`
	AppPrivateKeyPath string `env:"APP_PRIVATE_KEY_PATH"`
}

// Patch holds the knobs of the workflow fix.
type Patch struct {
	Check     string `env:"CHECK,default=yaml"`
	Publish   string `env:"PUBLISH,default=pull-request"`
	SkipForks bool   `env:"SKIP_FORKS,default=true"`
	Reformat  bool   `env:"REFORMAT,default=false"`
	Branch    string `env:"BRANCH"`
	Label     string `env:"LABEL"`
	DryRun    bool   `env:"DRY_RUN,default=false"`
}

// LoadDotEnv copies variables from a .env file in the working directory into
// the process environment. Variables already set win over the file, and a
// missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads an optional .env file and then processes the environment.
// Strategy values are not validated here: command-line flags may still
// override them, and patcher.New validates the merged result.
func Load(ctx context.Context) (*Env, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return process(ctx, envconfig.OsLookuper())
}

// LoadFrom processes a fixed set of variables instead of the environment.
func LoadFrom(ctx context.Context, vars map[string]string) (*Env, error) {
	return process(ctx, envconfig.MapLookuper(vars))
}

func process(ctx context.Context, l envconfig.Lookuper) (*Env, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &env, nil
}

// PatcherConfig maps the PATCH_ variables onto a patcher.Config with defaults applied.
func (e *Env) PatcherConfig() patcher.Config {
	return patcher.Config{
		BranchName: e.Patch.Branch,
		Label:      e.Patch.Label,
		Check:      patcher.Check(e.Patch.Check),
		Publish:    patcher.Publish(e.Patch.Publish),
		SkipForks:  e.Patch.SkipForks,
		Reformat:   e.Patch.Reformat,
	}.WithDefaults()
}

// Auth returns the GitHub credentials for platform/github.NewClient.
func (e *Env) Auth() platformgithub.Auth {
	return platformgithub.Auth{
		BaseURL:        e.GitHub.APIURL,
		Token:          e.GitHub.Token,
		AppID:          e.GitHub.AppID,
		InstallationID: e.GitHub.AppInstallationID,
		PrivateKeyPath: e.GitHub.AppPrivateKeyPath,
	}
}
