package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gowiki/gowiki/internal/editors"
	"github.com/gowiki/gowiki/internal/page/service"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/middleware"
)

func (h *Handler) registerAPI(api *gin.RouterGroup) {
	api.GET("/pages", h.listPages)
	api.GET("/pages/:name", h.getPage)
	api.PUT("/pages/:name", h.writeChain(h.savePage)...)
	api.GET("/pages/:name/history", h.pageHistory)
	api.GET("/pages/:name/revisions/:id", h.getRevision)
	api.GET("/pages/:name/diff", h.diffRevisions)
	api.GET("/pages/:name/attachments", h.listAttachments)
	api.POST("/pages/:name/attachments", h.writeChain(h.uploadAttachment)...)
	api.GET("/pages/:name/attachments/:filename", h.getAttachment)

	api.GET("/recent", h.recent)
	api.GET("/search", h.search)
	api.GET("/me", h.requireAuth(), h.me)
}

const maxLimit = 1000

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, maxLimit)
}

func (h *Handler) listPages(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, p := range list {
		out = append(out, gin.H{"name": p.Name, "version": p.Version, "modifiedAt": p.ModifiedAt})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getPage(c *gin.Context) {
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	p, found, err := h.svc.Load(c.Request.Context(), name)
	if err != nil {
		apiError(c, err)
		return
	}
	if !found {
		apiError(c, service.ErrNotFound)
		return
	}
	rendered, err := h.svc.Render(c.Request.Context(), p)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":       p.Name,
		"content":    p.Content,
		"html":       rendered,
		"version":    p.Version,
		"editor":     p.Editor,
		"createdAt":  p.CreatedAt,
		"modifiedAt": p.ModifiedAt,
	})
}

func (h *Handler) savePage(c *gin.Context) {
	var req struct {
		Content *string `json:"content" binding:"required"`
		Comment string  `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ed := editors.FromClaims(middleware.Claims(c))
	if ed == nil {
		apiError(c, errUnauthorized)
		return
	}
	rev, err := h.svc.Save(c.Request.Context(), service.SaveRequest{
		Name:       c.Param("name"),
		Content:    *req.Content,
		Comment:    req.Comment,
		RemoteAddr: c.ClientIP(),
		Editor:     ed,
	})
	if err != nil {
		apiError(c, err)
		return
	}
	if h.opts.Editors != nil {
		if _, err := h.opts.Editors.Touch(c.Request.Context(), ed); err != nil {
			logger.Warnf("record edit by %s: %v", ed.Sub, err)
		}
	}
	status := http.StatusOK
	if rev.Version == 1 {
		status = http.StatusCreated
	}
	c.JSON(status, rev.Summary())
}

func (h *Handler) pageHistory(c *gin.Context) {
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	revs, err := h.svc.History(c.Request.Context(), name)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, revs)
}

func (h *Handler) getRevision(c *gin.Context) {
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	rev, err := h.svc.Revision(c.Request.Context(), name, c.Param("id"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func (h *Handler) diffRevisions(c *gin.Context) {
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	d, err := h.svc.Diff(c.Request.Context(), name, c.Query("v1"), c.Query("v2"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from":      d.FromDesc,
		"to":        d.ToDesc,
		"identical": d.Identical(),
		"rows":      d.Rows,
		"html":      d.HTML(),
	})
}

func (h *Handler) recent(c *gin.Context) {
	revs, err := h.svc.Recent(c.Request.Context(), queryLimit(c, h.opts.RecentLimit))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, revs)
}

func (h *Handler) search(c *gin.Context) {
	res, err := h.svc.Search(c.Request.Context(), c.Query("q"), queryLimit(c, h.opts.RecentLimit))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) me(c *gin.Context) {
	ed := editors.FromClaims(middleware.Claims(c))
	if ed == nil {
		apiError(c, errUnauthorized)
		return
	}
	out := gin.H{"editor": ed}
	if h.opts.Editors != nil {
		profile, err := h.opts.Editors.Get(c.Request.Context(), ed.Sub)
		if err != nil {
			apiError(c, err)
			return
		}
		if profile != nil {
			out["profile"] = profile
		}
	}
	c.JSON(http.StatusOK, out)
}
