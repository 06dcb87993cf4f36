// Package cli parses the patcher's command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/config"
)

// ErrHelp is returned when -h or --help was requested.
var ErrHelp = pflag.ErrHelp

// RepoRef names a repository on the command line as owner/repo.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string { return r.Owner + "/" + r.Name }

// Options holds the parsed flags. Only flags that were set on the command
// line override the environment; see Apply.
type Options struct {
	Check        string
	Publish      string
	IncludeForks bool
	Reformat     bool
	DryRun       bool
	Branch       string
	Label        string
	Repos        []RepoRef

	changed map[string]bool
}

// Parse parses args (without the program name). Usage and errors go to out.
func Parse(args []string, out io.Writer) (*Options, error) {
	opts := &Options{changed: make(map[string]bool)}

	fs := pflag.NewFlagSet("patcher", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&opts.Check, "check", "c", "", `How to detect the legacy branch filter: "yaml" or "substring".`)
	fs.StringVarP(&opts.Publish, "publish", "p", "", `Where to commit the fix: "pull-request" or "direct".`)
	fs.BoolVar(&opts.IncludeForks, "include-forks", false, "Patch forked repositories too.")
	fs.BoolVar(&opts.Reformat, "reformat", false, "Re-encode the patched workflow with two-space YAML indentation.")
	fs.BoolVarP(&opts.DryRun, "dry-run", "n", false, "Read from GitHub but record writes instead of sending them.")
	fs.StringVar(&opts.Branch, "branch", "", "Feature branch for the pull request.")
	fs.StringVar(&opts.Label, "label", "", "Label added to the pull request.")

	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: patcher [flags] owner/repo...")
		fmt.Fprintln(out, "\nRewrite the Dependabot branch filter of the Update Prettier workflow to Renovate.")
		fmt.Fprintln(out, "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *pflag.Flag) { opts.changed[f.Name] = true })

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errors.New("at least one owner/repo argument is required")
	}
	for _, arg := range fs.Args() {
		ref, err := ParseRepoRef(arg)
		if err != nil {
			return nil, err
		}
		opts.Repos = append(opts.Repos, ref)
	}
	return opts, nil
}

// ParseRepoRef parses "owner/repo". A trailing ".git" or a github.com URL
// prefix is accepted.
func ParseRepoRef(s string) (RepoRef, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), ".git")
	trimmed = strings.TrimPrefix(trimmed, "https://github.com/")
	owner, name, ok := strings.Cut(trimmed, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoRef{}, fmt.Errorf("invalid repository %q: want owner/repo", s)
	}
	return RepoRef{Owner: owner, Name: name}, nil
}

// Apply overrides env with the flags that were set explicitly.
func (o *Options) Apply(env *config.Env) {
	if o.changed["check"] {
		env.Patch.Check = o.Check
	}
	if o.changed["publish"] {
		env.Patch.Publish = o.Publish
	}
	if o.changed["include-forks"] {
		env.Patch.SkipForks = !o.IncludeForks
	}
	if o.changed["reformat"] {
		env.Patch.Reformat = o.Reformat
	}
	if o.changed["dry-run"] {
		env.Patch.DryRun = o.DryRun
	}
	if o.changed["branch"] {
		env.Patch.Branch = o.Branch
	}
	if o.changed["label"] {
		env.Patch.Label = o.Label
	}
}
