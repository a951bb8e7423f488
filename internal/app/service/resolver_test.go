package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
)

type countingRecorder struct {
	records []string
	err     error
}

func (r *countingRecorder) Record(ctx context.Context, linkID string, at time.Time) error {
	r.records = append(r.records, linkID)
	return r.err
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
}

func newTestResolver(repo repository.LinkRepository, recorder ClickRecorder) Resolver {
	return NewResolver(ResolverDeps{
		Links:  repo,
		Clicks: recorder,
		Now:    fixedNow,
	})
}

func TestResolve_RecordsClickAndReturnsURL(t *testing.T) {
	repo := &mockLinkRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Link, error) {
			return &model.Link{ID: "link-1", Slug: slug, OriginalURL: "https://example.com/page"}, nil
		},
	}
	recorder := &countingRecorder{}

	target, err := newTestResolver(repo, recorder).Resolve(context.Background(), "abc1234")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if target != "https://example.com/page" {
		t.Fatalf("unexpected target %q", target)
	}
	if len(recorder.records) != 1 || recorder.records[0] != "link-1" {
		t.Fatalf("expected exactly one click for link-1, got %v", recorder.records)
	}
}

func TestResolve_MissingSlug(t *testing.T) {
	recorder := &countingRecorder{}

	_, err := newTestResolver(&mockLinkRepository{}, recorder).Resolve(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(recorder.records) != 0 {
		t.Fatalf("missing slug must not record a click, got %v", recorder.records)
	}
}

func TestResolve_ExpiredBehavesLikeMissing(t *testing.T) {
	yesterday := fixedNow().Add(-24 * time.Hour)
	repo := &mockLinkRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Link, error) {
			return &model.Link{
				ID:          "link-1",
				Slug:        slug,
				OriginalURL: "https://example.com",
				ExpiresAt:   &yesterday,
			}, nil
		},
	}
	recorder := &countingRecorder{}

	_, err := newTestResolver(repo, recorder).Resolve(context.Background(), "abc1234")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired link, got %v", err)
	}
	if len(recorder.records) != 0 {
		t.Fatalf("expired slug must not record a click, got %v", recorder.records)
	}
}

func TestResolve_FutureExpiryStillActive(t *testing.T) {
	tomorrow := fixedNow().Add(24 * time.Hour)
	repo := &mockLinkRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Link, error) {
			return &model.Link{
				ID:          "link-1",
				Slug:        slug,
				OriginalURL: "https://example.com",
				ExpiresAt:   &tomorrow,
			}, nil
		},
	}
	recorder := &countingRecorder{}

	if _, err := newTestResolver(repo, recorder).Resolve(context.Background(), "abc1234"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one click, got %d", len(recorder.records))
	}
}

func TestResolve_RecorderFailureDoesNotBlockRedirect(t *testing.T) {
	repo := &mockLinkRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Link, error) {
			return &model.Link{ID: "link-1", Slug: slug, OriginalURL: "https://example.com"}, nil
		},
	}
	recorder := &countingRecorder{err: errors.New("click store down")}

	target, err := newTestResolver(repo, recorder).Resolve(context.Background(), "abc1234")
	if err != nil {
		t.Fatalf("recorder failure must not fail the redirect, got %v", err)
	}
	if target != "https://example.com" {
		t.Fatalf("unexpected target %q", target)
	}
}
