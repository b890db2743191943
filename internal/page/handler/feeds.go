package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"github.com/gowiki/gowiki/internal/feed"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/page/service"
	"github.com/gowiki/gowiki/pkg/metrics"
)

// splitFeedFile splits "Name.atom" into its base name and format.
func splitFeedFile(file string) (string, feed.Format, bool) {
	ext := path.Ext(file)
	format, ok := feed.ParseFormat(strings.TrimPrefix(ext, "."))
	if !ok {
		return "", "", false
	}
	return strings.TrimSuffix(file, ext), format, true
}

func (h *Handler) baseURL(c *gin.Context) string {
	if h.opts.BaseURL != "" {
		return h.opts.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *Handler) writeFeed(c *gin.Context, f *feeds.Feed, format feed.Format) {
	out, err := feed.Render(f, format)
	if err != nil {
		apiError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), []byte(out))
}

// recentFeed serves /feeds/recent.atom and /feeds/recent.rss.
func (h *Handler) recentFeed(c *gin.Context) {
	base, format, ok := splitFeedFile(c.Param("file"))
	if !ok || base != "recent" {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown feed"})
		return
	}
	metrics.PageViews.WithLabelValues("feed").Inc()
	revs, err := h.svc.Recent(c.Request.Context(), h.opts.RecentLimit)
	if err != nil {
		apiError(c, err)
		return
	}
	h.writeFeed(c, feed.RecentChanges(h.baseURL(c), h.opts.SiteName, revs), format)
}

// pageFeed serves /feeds/pages/<Name>.atom and .rss.
func (h *Handler) pageFeed(c *gin.Context) {
	name, format, ok := splitFeedFile(c.Param("file"))
	name = page.CleanName(name)
	if !ok || !page.ValidName(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown feed"})
		return
	}
	metrics.PageViews.WithLabelValues("feed").Inc()
	revs, err := h.svc.History(c.Request.Context(), name)
	if err != nil {
		apiError(c, err)
		return
	}
	if len(revs) == 0 {
		apiError(c, service.ErrNotFound)
		return
	}
	h.writeFeed(c, feed.PageHistory(h.baseURL(c), name, revs), format)
}
