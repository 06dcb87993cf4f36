package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// registerAPIRoutes serves the subset of the GitHub REST API the patcher's
// go-github adapter calls. Response shapes follow api.github.com.
func registerAPIRoutes(r *gin.Engine, s *store, log *slog.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/repos/:owner/:repo", func(c *gin.Context) {
		repo, ok := s.repo(c.Param("owner"), c.Param("repo"))
		if !ok {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, repoJSON(s.baseURL, repo))
	})

	r.GET("/repos/:owner/:repo/contents/*path", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		path := strings.TrimPrefix(c.Param("path"), "/")

		content, sha, err := s.getFile(owner, repo, path, c.Query("ref"))
		if err != nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"type":     "file",
			"name":     path[strings.LastIndex(path, "/")+1:],
			"path":     path,
			"sha":      sha,
			"size":     len(content),
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			"encoding": "base64",
		})
	})

	r.PUT("/repos/:owner/:repo/contents/*path", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		path := strings.TrimPrefix(c.Param("path"), "/")

		var req struct {
			Message string `json:"message" binding:"required"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
			Branch  string `json:"branch"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "content is not valid Base64"})
			return
		}

		commit, err := s.putFile(owner, repo, path, req.Branch, req.SHA, string(decoded))
		switch {
		case errors.Is(err, errNotFound):
			notFound(c)
			return
		case errors.Is(err, errSHAMismatch):
			c.JSON(http.StatusConflict, gin.H{"message": fmt.Sprintf("%s does not match %s", path, req.SHA)})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		log.Info("file updated", "repo", owner+"/"+repo, "path", path, "branch", req.Branch, "commit", commit)
		c.JSON(http.StatusOK, gin.H{
			"content": gin.H{"path": path, "sha": blobSHA(string(decoded))},
			"commit": gin.H{
				"sha":      commit,
				"message":  req.Message,
				"html_url": fmt.Sprintf("%s/%s/%s/commit/%s", s.baseURL, owner, repo, commit),
			},
		})
	})

	r.GET("/repos/:owner/:repo/branches", func(c *gin.Context) {
		branches, err := s.listBranches(c.Param("owner"), c.Param("repo"))
		if err != nil {
			notFound(c)
			return
		}
		out := make([]gin.H, 0, len(branches))
		for _, b := range branches {
			out = append(out, gin.H{"name": b.Name, "commit": gin.H{"sha": b.SHA}})
		}
		c.JSON(http.StatusOK, out)
	})

	r.POST("/repos/:owner/:repo/git/refs", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		var req struct {
			Ref string `json:"ref" binding:"required"`
			SHA string `json:"sha" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		name, ok := strings.CutPrefix(req.Ref, "refs/heads/")
		if !ok || name == "" {
			validationFailed(c, "Reference name is invalid")
			return
		}

		err := s.createBranch(owner, repo, name, req.SHA)
		switch {
		case errors.Is(err, errNotFound):
			notFound(c)
			return
		case errors.Is(err, errRefExists):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Reference already exists"})
			return
		case errors.Is(err, errUnknownCommit):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Object does not exist"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		log.Info("branch created", "repo", owner+"/"+repo, "branch", name, "sha", req.SHA)
		c.JSON(http.StatusCreated, gin.H{
			"ref":    req.Ref,
			"object": gin.H{"sha": req.SHA, "type": "commit"},
		})
	})

	r.POST("/repos/:owner/:repo/pulls", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		var req struct {
			Title string `json:"title" binding:"required"`
			Body  string `json:"body"`
			Head  string `json:"head"  binding:"required"`
			Base  string `json:"base"  binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		pr, err := s.createPR(owner, repo, req.Title, req.Body, req.Head, req.Base)
		switch {
		case errors.Is(err, errNotFound):
			validationFailed(c, "head branch "+req.Head+" does not exist")
			return
		case errors.Is(err, errPRExists):
			validationFailed(c, fmt.Sprintf("A pull request already exists for %s:%s.", owner, req.Head))
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		log.Info("PR created", "repo", owner+"/"+repo, "number", pr.Number, "title", pr.Title, "head", pr.Head)
		c.JSON(http.StatusCreated, prJSON(pr))
	})

	r.GET("/repos/:owner/:repo/pulls/:number", func(c *gin.Context) {
		num, err := strconv.Atoi(c.Param("number"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid PR number"})
			return
		}
		pr, ok := s.getPR(c.Param("owner"), c.Param("repo"), num)
		if !ok {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, prJSON(pr))
	})

	r.POST("/repos/:owner/:repo/issues/:number/labels", func(c *gin.Context) {
		owner, repo := c.Param("owner"), c.Param("repo")
		num, err := strconv.Atoi(c.Param("number"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid issue number"})
			return
		}
		var labels []string
		if err := c.ShouldBindJSON(&labels); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		all, err := s.addLabels(owner, repo, num, labels)
		if err != nil {
			notFound(c)
			return
		}
		log.Info("labels added", "repo", owner+"/"+repo, "number", num, "labels", labels)
		out := make([]gin.H, 0, len(all))
		for _, l := range all {
			out = append(out, gin.H{"name": l})
		}
		c.JSON(http.StatusOK, out)
	})
}

func repoJSON(baseURL string, r Repo) gin.H {
	return gin.H{
		"name":           r.Name,
		"full_name":      r.FullName(),
		"owner":          gin.H{"login": r.Owner},
		"default_branch": r.DefaultBranch,
		"html_url":       baseURL + "/" + r.FullName(),
		"archived":       r.Archived,
		"fork":           r.Fork,
	}
}

func prJSON(pr PullRequest) gin.H {
	labels := make([]gin.H, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, gin.H{"name": l})
	}
	return gin.H{
		"number":   pr.Number,
		"html_url": pr.HTMLURL,
		"title":    pr.Title,
		"body":     pr.Body,
		"state":    pr.State,
		"head":     gin.H{"ref": pr.Head},
		"base":     gin.H{"ref": pr.Base},
		"labels":   labels,
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
}

func validationFailed(c *gin.Context, msg string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "Validation Failed",
		"errors":  []gin.H{{"resource": "PullRequest", "code": "custom", "message": msg}},
	})
}
