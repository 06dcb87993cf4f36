package main

const workflowPath = ".github/workflows/update-prettier.yml"

// legacyWorkflow still filters on the Dependabot branch naming.
const legacyWorkflow = `name: Update Prettier
on:
  push:
    branches:
      - dependabot/npm_and_yarn/prettier-*
jobs:
  update_prettier:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-node@v4
        with:
          cache: npm
          node-version: lts/*
      - run: npm ci
      - run: npm run lint:fix
      - uses: gr2m/create-or-update-pull-request-action@v1
        env:
          GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }}
        with:
          title: Prettier updated
          body: An update to prettier required updates to your code.
          branch: ${{ github.ref }}
          commit-message: "style: prettier"
`

// fixedWorkflow already targets Renovate branches.
const fixedWorkflow = `name: Update Prettier
on:
  push:
    branches:
      - renovate/prettier-*
jobs:
  update_prettier:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: npm ci
      - run: npm run lint:fix
`

const ciWorkflow = `name: CI
on:
  pull_request:
  push:
    branches:
      - main
jobs:
  test:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: npm ci
      - run: npm test
`

// seedRepos registers one repository per case the patcher distinguishes.
// Called before the server accepts requests.
func seedRepos(s *store) {
	s.addRepo(Repo{Owner: "octoherd", Name: "legacy-site"}, map[string]string{
		workflowPath:               legacyWorkflow,
		".github/workflows/ci.yml": ciWorkflow,
		"README.md":                "# legacy-site\n",
	})
	s.addRepo(Repo{Owner: "octoherd", Name: "legacy-trunk", DefaultBranch: "trunk"}, map[string]string{
		workflowPath: legacyWorkflow,
	})
	s.addRepo(Repo{Owner: "octoherd", Name: "already-fixed"}, map[string]string{
		workflowPath: fixedWorkflow,
	})
	s.addRepo(Repo{Owner: "octoherd", Name: "archived-site", Archived: true}, map[string]string{
		workflowPath: legacyWorkflow,
	})
	s.addRepo(Repo{Owner: "octoherd", Name: "forked-site", Fork: true}, map[string]string{
		workflowPath: legacyWorkflow,
	})
	s.addRepo(Repo{Owner: "octoherd", Name: "no-workflow"}, map[string]string{
		".github/workflows/ci.yml": ciWorkflow,
	})
}
