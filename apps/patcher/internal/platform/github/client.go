// Package github provides factory functions for creating authenticated GitHub
// API clients. Callers wrap the returned *github.Client with the adapter in
// apps/patcher/internal/adapters/github.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v75/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const defaultAPIURL = "https://api.github.com"

// Auth selects how the client authenticates. App credentials win when all
// three are set; otherwise Token is used (an empty token is anonymous).
type Auth struct {
	BaseURL        string
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

// UsesApp reports whether the GitHub App credentials are complete.
func (a Auth) UsesApp() bool {
	return a.AppID != 0 && a.InstallationID != 0 && a.PrivateKeyPath != ""
}

// NewClient builds a client for whichever credentials a carries.
func NewClient(ctx context.Context, a Auth) (*gogithub.Client, error) {
	if a.UsesApp() {
		return NewAppClient(a.AppID, a.InstallationID, a.PrivateKeyPath, a.BaseURL)
	}
	return NewTokenClient(ctx, a.Token, a.BaseURL)
}

// NewTokenClient creates a *github.Client authenticated with a personal access token.
// Pass baseURL="" to use the real GitHub API, or a custom URL
// (e.g. "http://localhost:9090") for the mock server.
func NewTokenClient(ctx context.Context, token, baseURL string) (*gogithub.Client, error) {
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	if token != "" {
		// oauth2 layers its token transport over the client stored in ctx.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	c := gogithub.NewClient(httpClient)
	if err := applyBaseURL(c, baseURL); err != nil {
		return nil, err
	}
	return c, nil
}

// NewAppClient creates a *github.Client authenticated as a GitHub App installation.
// privateKeyPath is the path to the app's PEM private key.
func NewAppClient(appID, installationID int64, privateKeyPath, baseURL string) (*gogithub.Client, error) {
	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = defaultAPIURL
	}

	tr, err := ghinstallation.NewKeyFromFile(otelhttp.NewTransport(http.DefaultTransport), appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("github app auth: %w", err)
	}
	tr.BaseURL = base

	c := gogithub.NewClient(&http.Client{Transport: tr})
	if err := applyBaseURL(c, baseURL); err != nil {
		return nil, err
	}
	return c, nil
}

// applyBaseURL points c at baseURL. Only absolute http(s) URLs are accepted.
func applyBaseURL(c *gogithub.Client, baseURL string) error {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" || baseURL == defaultAPIURL {
		return nil
	}
	u, err := url.Parse(baseURL + "/")
	if err != nil {
		return fmt.Errorf("invalid github api url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid github api url %q: want http(s)://host", baseURL)
	}
	c.BaseURL = u
	return nil
}
