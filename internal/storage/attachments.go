package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidFilename    = errors.New("invalid attachment filename")
)

// Attachment describes one stored file of a page.
type Attachment struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// Attachments stores files that belong to wiki pages.
type Attachments interface {
	Upload(ctx context.Context, page, filename string, r io.Reader, size int64, contentType string) (string, error)
	URL(ctx context.Context, page, filename string, expiry time.Duration) (string, error)
	List(ctx context.Context, page string) ([]Attachment, error)
}

// ObjectKey maps a page attachment to its object key, pages/<page>/<file>.
// Only the base name of filename is kept.
func ObjectKey(page, filename string) (string, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", ErrInvalidFilename
	}
	return pagePrefix(page) + base, nil
}

func pagePrefix(page string) string {
	return "pages/" + page + "/"
}
