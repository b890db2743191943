package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) uploadAttachment(c *gin.Context) {
	if h.opts.Attachments == nil {
		apiError(c, errNoStorage)
		return
	}
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		apiError(c, err)
		return
	}
	defer f.Close()

	key, err := h.opts.Attachments.Upload(c.Request.Context(), name, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": name, "key": key, "size": fh.Size})
}

func (h *Handler) listAttachments(c *gin.Context) {
	if h.opts.Attachments == nil {
		apiError(c, errNoStorage)
		return
	}
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	list, err := h.opts.Attachments.List(c.Request.Context(), name)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// getAttachment redirects to a short-lived presigned URL.
func (h *Handler) getAttachment(c *gin.Context) {
	if h.opts.Attachments == nil {
		apiError(c, errNoStorage)
		return
	}
	name, err := apiName(c)
	if err != nil {
		apiError(c, err)
		return
	}
	u, err := h.opts.Attachments.URL(c.Request.Context(), name, c.Param("filename"), h.opts.AttachmentURLExpiry)
	if err != nil {
		apiError(c, err)
		return
	}
	c.Redirect(http.StatusFound, u)
}
