package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowiki/gowiki/internal/editors"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/page/service"
	"github.com/gowiki/gowiki/internal/storage"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	errEditingDisabled = errors.New("editing is not configured")
	errNoStorage       = errors.New("attachment storage is not configured")
	errUnauthorized    = errors.New("token does not identify an editor")
)

// Options wires optional collaborators. Nil fields disable the routes
// that need them (they answer 503).
type Options struct {
	SiteName  string
	FrontPage string
	BaseURL   string

	Verifier     middleware.Verifier
	// WriteLimiter runs after authentication on the write routes, so it
	// can key on the editor's subject.
	WriteLimiter gin.HandlerFunc

	Editors     *editors.Service
	Attachments storage.Attachments
	// AttachmentURLExpiry bounds presigned download links.
	AttachmentURLExpiry time.Duration
	RecentLimit         int
}

type Handler struct {
	svc  service.Service
	opts Options
}

func New(svc service.Service, opts Options) *Handler {
	if opts.SiteName == "" {
		opts.SiteName = "Wiki"
	}
	if opts.FrontPage == "" {
		opts.FrontPage = "MainPage"
	}
	if opts.AttachmentURLExpiry <= 0 {
		opts.AttachmentURLExpiry = 15 * time.Minute
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 50
	}
	return &Handler{svc: svc, opts: opts}
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("Mon, Jan 02, 2006 at 03:04 PM") },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Register installs the HTML views, feeds and the /api/v1 JSON API on r.
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())

	r.GET("/", func(c *gin.Context) { h.showPage(c, h.opts.FrontPage) })
	r.GET("/:name", func(c *gin.Context) { h.showPage(c, c.Param("name")) })

	r.GET("/feeds/:file", h.recentFeed)
	r.GET("/feeds/pages/:file", h.pageFeed)

	h.registerAPI(r.Group("/api/v1"))
}

// requireAuth verifies the bearer token, or answers 503 when no verifier
// is configured.
func (h *Handler) requireAuth() gin.HandlerFunc {
	if h.opts.Verifier == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errEditingDisabled.Error()})
		}
	}
	return middleware.AuthMiddleware(h.opts.Verifier)
}

// writeChain authenticates, applies the WriteLimiter and then runs final.
func (h *Handler) writeChain(final gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{h.requireAuth()}
	if h.opts.WriteLimiter != nil {
		chain = append(chain, h.opts.WriteLimiter)
	}
	return append(chain, final)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, storage.ErrInvalidFilename):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrRevisionNotFound),
		errors.Is(err, storage.ErrAttachmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrReservedPage):
		return http.StatusConflict
	case errors.Is(err, errEditingDisabled), errors.Is(err, errNoStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// apiError writes {"error": ...}. Internal errors are logged and hidden.
func apiError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// apiName cleans and validates the :name path parameter.
func apiName(c *gin.Context) (string, error) {
	name := page.CleanName(c.Param("name"))
	if !page.ValidName(name) {
		return "", service.ErrInvalidName
	}
	return name, nil
}
