package main

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func registerHTMLRoutes(r *gin.Engine, s *store, log *slog.Logger) {
	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, renderDashboard(s.listAllPRs(), s.listRepos()))
	})

	r.GET("/:owner/:repo/pull/:number", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		num, err := strconv.Atoi(c.Param("number"))
		if err != nil {
			c.String(http.StatusBadRequest, "invalid PR number")
			return
		}
		pr, ok := s.getPR(owner, repo, num)
		if !ok {
			c.String(http.StatusNotFound, "pull request not found")
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, renderPRPage(owner, repo, pr, s.changedFiles(owner, repo, pr)))
	})

	r.POST("/:owner/:repo/pull/:number/merge", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		num, err := strconv.Atoi(c.Param("number"))
		if err != nil {
			c.String(http.StatusBadRequest, "invalid PR number")
			return
		}
		if _, err := s.merge(owner, repo, num); err != nil {
			c.String(http.StatusNotFound, err.Error())
			return
		}
		log.Info("PR merged", "repo", owner+"/"+repo, "number", num)
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/%s/%s/pull/%d", owner, repo, num))
	})
}

const pageStyle = `
  <style>
    * { margin:0; padding:0; box-sizing:border-box; }
    body { background:#0d1117; color:#c9d1d9; font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif; }
    a { color:#58a6ff; text-decoration:none; }
    a:hover { text-decoration:underline; }
    table { width:100%; border-collapse:collapse; background:#161b22; border:1px solid #30363d; margin-bottom:32px; }
    th { padding:12px 16px; text-align:left; font-size:12px; color:#8b949e; border-bottom:1px solid #21262d; font-weight:500; }
    td { padding:12px 16px; border-bottom:1px solid #21262d; font-size:14px; }
    .badge { display:inline-block; padding:2px 10px; border-radius:12px; font-size:12px; font-weight:500; }
    .mono { font-family:monospace; font-size:13px; color:#8b949e; }
  </style>`

func badge(color, label string) string {
	return fmt.Sprintf(`<span class="badge" style="background:%s22;color:%s;border:1px solid %s44;">%s</span>`,
		color, color, color, html.EscapeString(label))
}

func stateBadge(state string) string {
	if state == stateMerged {
		return badge("#a371f7", "Merged")
	}
	return badge("#3fb950", "Open")
}

func renderDashboard(prs []PullRequest, repos []Repo) string {
	var prRows strings.Builder
	openCount := 0
	for _, pr := range prs {
		if pr.State == stateOpen {
			openCount++
		}
		labels := make([]string, 0, len(pr.Labels))
		for _, l := range pr.Labels {
			labels = append(labels, badge("#d29922", l))
		}
		fmt.Fprintf(&prRows, `
        <tr>
          <td><a href="%s" style="font-weight:600;">%s</a> %s</td>
          <td class="mono">%s</td>
          <td class="mono">%s</td>
          <td>%s</td>
        </tr>`,
			html.EscapeString(fmt.Sprintf("/%s/pull/%d", pr.Repo, pr.Number)),
			html.EscapeString(pr.Title), strings.Join(labels, " "),
			html.EscapeString(pr.Repo), html.EscapeString(pr.Head), stateBadge(pr.State))
	}
	if len(prs) == 0 {
		prRows.WriteString(`<tr><td colspan="4" style="padding:40px 16px;text-align:center;color:#8b949e;">No pull requests yet. Run the patcher against this server.</td></tr>`)
	}

	var repoRows strings.Builder
	for _, r := range repos {
		var flags []string
		if r.Archived {
			flags = append(flags, badge("#8b949e", "archived"))
		}
		if r.Fork {
			flags = append(flags, badge("#8b949e", "fork"))
		}
		fmt.Fprintf(&repoRows, `
        <tr>
          <td>%s %s</td>
          <td class="mono">%s</td>
        </tr>`, html.EscapeString(r.FullName()), strings.Join(flags, " "), html.EscapeString(r.DefaultBranch))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>Mock GitHub</title>
  <meta http-equiv="refresh" content="3">%s
</head>
<body>
  <div style="max-width:960px;margin:0 auto;padding:32px 16px;">
    <div style="display:flex;align-items:center;justify-content:space-between;margin-bottom:24px;">
      <h1 style="font-size:20px;font-weight:600;">Pull Requests</h1>
      <span style="font-size:13px;color:#8b949e;">%d open</span>
    </div>
    <table>
      <thead><tr><th>Title</th><th>Repository</th><th>Branch</th><th>Status</th></tr></thead>
      <tbody>%s</tbody>
    </table>
    <h2 style="font-size:16px;font-weight:600;margin-bottom:12px;">Repositories</h2>
    <table>
      <thead><tr><th>Name</th><th>Default branch</th></tr></thead>
      <tbody>%s</tbody>
    </table>
  </div>
</body>
</html>`, pageStyle, openCount, prRows.String(), repoRows.String())
}

func renderPRPage(owner, repo string, pr PullRequest, files map[string]string) string {
	action := fmt.Sprintf(`
    <form method="POST" action="/%s/%s/pull/%d/merge" style="margin-top:24px;">
      <button type="submit" style="padding:8px 20px;background:#238636;color:#fff;border:1px solid #2ea04366;border-radius:6px;font-size:14px;font-weight:500;cursor:pointer;">
        Merge pull request
      </button>
    </form>`, html.EscapeString(owner), html.EscapeString(repo), pr.Number)
	if pr.State == stateMerged {
		action = `<div style="margin-top:24px;padding:12px 16px;background:#a371f722;border:1px solid #a371f744;border-radius:6px;color:#a371f7;font-size:14px;">Pull request successfully merged.</div>`
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var filesHTML strings.Builder
	if len(paths) > 0 {
		fmt.Fprintf(&filesHTML, `
    <div style="margin-top:24px;">
      <h3 style="font-size:16px;font-weight:500;margin-bottom:12px;">Files changed (%d)</h3>`, len(paths))
		for _, p := range paths {
			fmt.Fprintf(&filesHTML, `
      <div style="margin-bottom:2px;">
        <div style="padding:10px 16px;background:#1c2128;border:1px solid #30363d;font-size:13px;"><code style="color:#79c0ff;">%s</code></div>
        <pre style="margin:0;padding:16px;background:#0d1117;border:1px solid #30363d;border-top:none;font-size:12px;color:#8b949e;white-space:pre-wrap;">%s</pre>
      </div>`, html.EscapeString(p), html.EscapeString(files[p]))
		}
		filesHTML.WriteString(`
    </div>`)
	}

	var labels []string
	for _, l := range pr.Labels {
		labels = append(labels, badge("#d29922", l))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>%s - Mock GitHub</title>%s
</head>
<body>
  <div style="max-width:960px;margin:0 auto;padding:32px 16px;">
    <div style="margin-bottom:24px;font-size:13px;"><a href="/">All pull requests</a></div>
    <h1 style="font-size:24px;font-weight:400;margin-bottom:16px;">%s <span style="color:#8b949e;font-weight:300;">#%d</span></h1>
    <div style="margin-bottom:24px;">%s %s <span class="mono">%s/%s</span></div>
    <div style="background:#161b22;border:1px solid #30363d;border-radius:6px;padding:20px;">
      <pre style="font-size:14px;line-height:1.6;white-space:pre-wrap;">%s</pre>
      <div style="margin-top:16px;padding-top:16px;border-top:1px solid #21262d;" class="mono">
        <code>%s</code> &rarr; <code>%s</code>
      </div>
    </div>
    %s
    %s
  </div>
</body>
</html>`,
		html.EscapeString(pr.Title), pageStyle,
		html.EscapeString(pr.Title), pr.Number,
		stateBadge(pr.State), strings.Join(labels, " "), html.EscapeString(owner), html.EscapeString(repo),
		html.EscapeString(pr.Body),
		html.EscapeString(pr.Head), html.EscapeString(pr.Base),
		action, filesHTML.String())
}
