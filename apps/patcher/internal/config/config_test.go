package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/config"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/patcher"
)

func TestLoadFrom_Defaults(t *testing.T) {
	env, err := config.LoadFrom(context.Background(), map[string]string{})
	require.NoError(t, err)

	assert.False(t, env.OTelEnabled)
	assert.Equal(t, "update-prettier-patcher", env.ServiceName)
	assert.False(t, env.Patch.DryRun)
	assert.Equal(t, patcher.DefaultConfig(), env.PatcherConfig())
	assert.False(t, env.Auth().UsesApp())
}

func TestLoadFrom_Overrides(t *testing.T) {
	env, err := config.LoadFrom(context.Background(), map[string]string{
		"GITHUB_API_URL":   "http://localhost:9090",
		"GITHUB_TOKEN":     "ghp_test",
		"OTEL_ENABLED":     "true",
		"PATCH_CHECK":      "substring",
		"PATCH_PUBLISH":    "direct",
		"PATCH_SKIP_FORKS": "false",
		"PATCH_REFORMAT":   "true",
		"PATCH_BRANCH":     "ci/renovate-prettier",
		"PATCH_LABEL":      "ci",
		"PATCH_DRY_RUN":    "true",
	})
	require.NoError(t, err)

	assert.True(t, env.OTelEnabled)
	assert.True(t, env.Patch.DryRun)

	cfg := env.PatcherConfig()
	assert.Equal(t, patcher.CheckSubstring, cfg.Check)
	assert.Equal(t, patcher.PublishDirect, cfg.Publish)
	assert.False(t, cfg.SkipForks)
	assert.True(t, cfg.Reformat)
	assert.Equal(t, "ci/renovate-prettier", cfg.BranchName)
	assert.Equal(t, "ci", cfg.Label)
	assert.Equal(t, patcher.DefaultTargetPath, cfg.TargetPath)

	auth := env.Auth()
	assert.Equal(t, "http://localhost:9090", auth.BaseURL)
	assert.Equal(t, "ghp_test", auth.Token)
}

func TestLoadFrom_AppCredentials(t *testing.T) {
	env, err := config.LoadFrom(context.Background(), map[string]string{
		"GITHUB_APP_ID":               "12",
		"GITHUB_APP_INSTALLATION_ID":  "34",
		"GITHUB_APP_PRIVATE_KEY_PATH": "/keys/app.pem",
	})
	require.NoError(t, err)

	auth := env.Auth()
	assert.True(t, auth.UsesApp())
	assert.Equal(t, int64(12), auth.AppID)
	assert.Equal(t, int64(34), auth.InstallationID)
	assert.Equal(t, "/keys/app.pem", auth.PrivateKeyPath)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bad bool", map[string]string{"PATCH_DRY_RUN": "maybe"}},
		{"bad app id", map[string]string{"GITHUB_APP_ID": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(context.Background(), tt.vars)
			assert.ErrorContains(t, err, "process env")
		})
	}
}

func TestLoadFrom_UnknownStrategyLeftToPatcher(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"unknown check", map[string]string{"PATCH_CHECK": "regex"}, `unknown check "regex"`},
		{"unknown publish", map[string]string{"PATCH_PUBLISH": "email"}, `unknown publish mode "email"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := config.LoadFrom(context.Background(), tt.vars)
			require.NoError(t, err)
			assert.ErrorContains(t, env.PatcherConfig().Validate(), tt.want)
		})
	}
}
