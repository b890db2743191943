package editors

import (
	"context"
	"time"

	"github.com/gowiki/gowiki/internal/page"
)

// Service encapsulates editor-related business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// Touch records one edit by ed. Anonymous edits are not tracked.
func (s *Service) Touch(ctx context.Context, ed *page.Editor) (*Profile, error) {
	if ed == nil || ed.Sub == "" {
		return nil, nil
	}
	return s.repo.RecordEdit(ctx, ed, s.now().UTC())
}

// Get returns the profile for sub, or nil if sub never edited.
func (s *Service) Get(ctx context.Context, sub string) (*Profile, error) {
	return s.repo.GetBySub(ctx, sub)
}
