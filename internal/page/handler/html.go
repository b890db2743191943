package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/metrics"
)

type historyRow struct {
	Rev    *page.Revision
	PrevID string
}

func (h *Handler) html(c *gin.Context, status int, name, title string, data gin.H) {
	data["Site"] = h.opts.SiteName
	data["FrontPage"] = h.opts.FrontPage
	data["Title"] = title
	c.HTML(status, name, data)
}

func (h *Handler) notFound(c *gin.Context, msg string) {
	h.html(c, http.StatusNotFound, "404.html", "Not Found", gin.H{"Message": msg})
}

func (h *Handler) serverError(c *gin.Context, err error) {
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	_ = c.Error(err)
	h.html(c, http.StatusInternalServerError, "error.html", "Error", gin.H{})
}

// showPage dispatches /<name>?mode=... to the reserved views or to the
// view, history and diff modes of a page.
func (h *Handler) showPage(c *gin.Context, name string) {
	if strings.Contains(name, "_") {
		target := "/" + page.CleanName(name)
		if q := c.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}
		c.Redirect(http.StatusMovedPermanently, target)
		return
	}
	switch name {
	case page.RecentChanges:
		h.recentChanges(c)
		return
	case page.SearchPages:
		h.searchPages(c)
		return
	}
	if !page.ValidName(name) {
		h.notFound(c, "")
		return
	}

	p, found, err := h.svc.Load(c.Request.Context(), name)
	if err != nil {
		h.serverError(c, err)
		return
	}
	mode := c.Query("mode")
	if !found {
		mode = "view"
	}
	switch mode {
	case "history":
		h.history(c, p)
	case "diff":
		h.diff(c, p)
	default:
		h.view(c, p, found)
	}
}

func (h *Handler) view(c *gin.Context, p *page.Page, found bool) {
	metrics.PageViews.WithLabelValues("view").Inc()
	content, err := h.svc.Render(c.Request.Context(), p)
	if err != nil {
		h.serverError(c, err)
		return
	}
	status := http.StatusOK
	if !found {
		status = http.StatusNotFound
	}
	h.html(c, status, "view.html", p.Name, gin.H{
		"Page":    p,
		"Found":   found,
		"Content": template.HTML(content),
	})
}

func (h *Handler) history(c *gin.Context, p *page.Page) {
	metrics.PageViews.WithLabelValues("history").Inc()
	revs, err := h.svc.History(c.Request.Context(), p.Name)
	if err != nil {
		h.serverError(c, err)
		return
	}
	rows := make([]historyRow, len(revs))
	for i, r := range revs {
		rows[i].Rev = r
		if i+1 < len(revs) {
			rows[i].PrevID = revs[i+1].ID
		}
	}
	h.html(c, http.StatusOK, "history.html", "History of "+p.Name, gin.H{"Page": p, "Rows": rows})
}

func (h *Handler) diff(c *gin.Context, p *page.Page) {
	metrics.PageViews.WithLabelValues("diff").Inc()
	d, err := h.svc.Diff(c.Request.Context(), p.Name, c.Query("v1"), c.Query("v2"))
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			h.notFound(c, "One of the requested revisions does not exist.")
			return
		}
		h.serverError(c, err)
		return
	}
	h.html(c, http.StatusOK, "diff.html", "Changes to "+p.Name, gin.H{"Page": p, "Diff": template.HTML(d.HTML())})
}

func (h *Handler) recentChanges(c *gin.Context) {
	metrics.PageViews.WithLabelValues("recent").Inc()
	revs, err := h.svc.Recent(c.Request.Context(), h.opts.RecentLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.html(c, http.StatusOK, "recent.html", "Recent Changes", gin.H{"Changes": revs})
}

func (h *Handler) searchPages(c *gin.Context) {
	metrics.PageViews.WithLabelValues("search").Inc()
	q := strings.TrimSpace(c.Query("q"))
	data := gin.H{"Query": q}
	if q != "" {
		res, err := h.svc.Search(c.Request.Context(), q, h.opts.RecentLimit)
		if err != nil {
			h.serverError(c, err)
			return
		}
		data["Results"] = res
	}
	h.html(c, http.StatusOK, "search.html", "Search", data)
}
