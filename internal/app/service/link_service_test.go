package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
)

type mockLinkRepository struct {
	createFn      func(ctx context.Context, link *model.Link) error
	getBySlugFn   func(ctx context.Context, slug string) (*model.Link, error)
	getOwnedFn    func(ctx context.Context, id, ownerID string) (*model.Link, error)
	findByURLFn   func(ctx context.Context, ownerID, originalURL string) (*model.Link, error)
	slugExistsFn  func(ctx context.Context, slug string) (bool, error)
	countCustomFn func(ctx context.Context, ownerID string) (int64, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]model.Link, error)
	updateFn      func(ctx context.Context, link *model.Link) error
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetBySlug(ctx context.Context, slug string) (*model.Link, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) GetOwned(ctx context.Context, id, ownerID string) (*model.Link, error) {
	if m.getOwnedFn != nil {
		return m.getOwnedFn(ctx, id, ownerID)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) FindByOwnerAndURL(ctx context.Context, ownerID, originalURL string) (*model.Link, error) {
	if m.findByURLFn != nil {
		return m.findByURLFn(ctx, ownerID, originalURL)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug)
	}
	return false, nil
}

func (m *mockLinkRepository) CountCustomByOwner(ctx context.Context, ownerID string) (int64, error) {
	if m.countCustomFn != nil {
		return m.countCustomFn(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockLinkRepository) ListSlugs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockLinkRepository) Update(ctx context.Context, link *model.Link) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockMetadataFetcher struct {
	fetchFn func(ctx context.Context, pageURL string) (*PageMetadata, error)
}

func (m *mockMetadataFetcher) Fetch(ctx context.Context, pageURL string) (*PageMetadata, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, pageURL)
	}
	return nil, errors.New("no fetcher configured")
}

func newTestService(repo repository.LinkRepository, opts ...func(*LinkServiceDeps)) LinkService {
	deps := LinkServiceDeps{
		Repo: repo,
		Policy: LinkPolicy{
			BaseURL:        "https://laghu.test",
			SlugLength:     7,
			MaxSlugTries:   20,
			CustomSlugCap:  5,
			DefaultLinkTTL: 12 * time.Hour,
		},
		Now: func() time.Time {
			return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewLinkService(deps)
}

func strPtr(s string) *string { return &s }

func TestCreateLink_InvalidURL(t *testing.T) {
	svc := newTestService(&mockLinkRepository{})

	for _, raw := range []string{"", "   ", "not a url", "/relative/path", "example.com/no-scheme"} {
		_, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: raw})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("url %q: expected ErrValidation, got %v", raw, err)
		}
	}
}

func TestCreateLink_GeneratedSlug(t *testing.T) {
	var created *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}
	svc := newTestService(repo)

	result, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com/page"})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected a repository insert")
	}
	if len(created.Slug) != 7 {
		t.Fatalf("expected 7-char slug, got %q", created.Slug)
	}
	if created.IsCustom {
		t.Fatal("generated slug must not be flagged custom")
	}
	if result.Reused {
		t.Fatal("fresh link must not be flagged reused")
	}
	if result.ShortURL != "https://laghu.test/"+created.Slug {
		t.Fatalf("unexpected short url %q", result.ShortURL)
	}
}

func TestCreateLink_AnonymousNeverExpires(t *testing.T) {
	var created *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com"}); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if created.ExpiresAt != nil {
		t.Fatalf("anonymous link must not expire, got %v", created.ExpiresAt)
	}
}

func TestCreateLink_OwnedDefaultsExpiry(t *testing.T) {
	var created *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:     "https://example.com",
		OwnerID: strPtr("user-1"),
	}); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	want := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	if created.ExpiresAt == nil || !created.ExpiresAt.Equal(want) {
		t.Fatalf("expected default expiry %v, got %v", want, created.ExpiresAt)
	}
}

func TestCreateLink_DuplicateURLReturnsExistingLink(t *testing.T) {
	existing := &model.Link{ID: "link-1", Slug: "abc1234", OriginalURL: "https://example.com"}
	createCalls := 0
	repo := &mockLinkRepository{
		findByURLFn: func(ctx context.Context, ownerID, originalURL string) (*model.Link, error) {
			if ownerID != "user-1" {
				t.Fatalf("unexpected owner %q", ownerID)
			}
			return existing, nil
		},
		createFn: func(ctx context.Context, link *model.Link) error {
			createCalls++
			return nil
		},
	}
	svc := newTestService(repo)

	result, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:     "https://example.com",
		OwnerID: strPtr("user-1"),
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if !result.Reused {
		t.Fatal("expected the duplicate to be flagged reused")
	}
	if result.Link.Slug != "abc1234" {
		t.Fatalf("expected the existing slug back, got %q", result.Link.Slug)
	}
	if createCalls != 0 {
		t.Fatalf("duplicate must not insert a second row, got %d inserts", createCalls)
	}
}

func TestCreateLink_CustomSlugValidation(t *testing.T) {
	svc := newTestService(&mockLinkRepository{})

	for _, slug := range []string{"ab", "UPPERCASE", "has space", "way-too-long-for-the-rules", "bad!chars"} {
		_, err := svc.CreateLink(context.Background(), CreateLinkInput{
			URL:        "https://example.com",
			OwnerID:    strPtr("user-1"),
			CustomSlug: slug,
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("slug %q: expected ErrValidation, got %v", slug, err)
		}
	}
}

func TestCreateLink_CustomSlugRequiresOwner(t *testing.T) {
	svc := newTestService(&mockLinkRepository{})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:        "https://example.com",
		CustomSlug: "my-link",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateLink_CustomSlugQuota(t *testing.T) {
	repo := &mockLinkRepository{
		countCustomFn: func(ctx context.Context, ownerID string) (int64, error) {
			return 5, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:        "https://example.com",
		OwnerID:    strPtr("user-1"),
		CustomSlug: "my-link",
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded on the 6th custom slug, got %v", err)
	}
}

func TestCreateLink_CustomSlugTaken(t *testing.T) {
	repo := &mockLinkRepository{
		slugExistsFn: func(ctx context.Context, slug string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:        "https://example.com",
		OwnerID:    strPtr("user-1"),
		CustomSlug: "my-link",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateLink_CustomSlugLosesInsertRace(t *testing.T) {
	// The pre-check passes but the unique index rejects the insert.
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			return repository.ErrSlugTaken
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:        "https://example.com",
		OwnerID:    strPtr("user-1"),
		CustomSlug: "my-link",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after losing the race, got %v", err)
	}
}

func TestCreateLink_RetriesOnSlugCollision(t *testing.T) {
	attempts := 0
	slugs := map[string]struct{}{}
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			attempts++
			slugs[link.Slug] = struct{}{}
			if attempts < 3 {
				return repository.ErrSlugTaken
			}
			return nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com"}); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", attempts)
	}
	if len(slugs) != 3 {
		t.Fatalf("expected a fresh slug per attempt, saw %d distinct", len(slugs))
	}
}

func TestCreateLink_BoundedRetries(t *testing.T) {
	attempts := 0
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			attempts++
			return repository.ErrSlugTaken
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com"})
	if !errors.Is(err, ErrSlugSpaceExhausted) {
		t.Fatalf("expected ErrSlugSpaceExhausted, got %v", err)
	}
	if attempts != 20 {
		t.Fatalf("expected exactly 20 attempts, got %d", attempts)
	}
}

func TestUpdateLink_NotOwned(t *testing.T) {
	svc := newTestService(&mockLinkRepository{})

	url := "https://new.example.com"
	_, err := svc.UpdateLink(context.Background(), "link-1", "user-1", UpdateLinkInput{URL: &url})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateLink_MetadataFailureDoesNotFailUpdate(t *testing.T) {
	var updated *model.Link
	repo := &mockLinkRepository{
		getOwnedFn: func(ctx context.Context, id, ownerID string) (*model.Link, error) {
			return &model.Link{ID: id, Slug: "abc1234", OriginalURL: "https://old.example.com"}, nil
		},
		updateFn: func(ctx context.Context, link *model.Link) error {
			updated = link
			return nil
		},
	}
	svc := newTestService(repo, func(deps *LinkServiceDeps) {
		deps.Metadata = &mockMetadataFetcher{
			fetchFn: func(ctx context.Context, pageURL string) (*PageMetadata, error) {
				return nil, errors.New("upstream timeout")
			},
		}
	})

	url := "https://new.example.com"
	link, err := svc.UpdateLink(context.Background(), "link-1", "user-1", UpdateLinkInput{URL: &url})
	if err != nil {
		t.Fatalf("UpdateLink returned error: %v", err)
	}
	if link.OriginalURL != url {
		t.Fatalf("expected updated URL, got %q", link.OriginalURL)
	}
	if updated == nil {
		t.Fatal("expected the repository update to run")
	}
	if updated.MetaTitle != "" {
		t.Fatalf("metadata fields must stay empty on fetch failure, got %q", updated.MetaTitle)
	}
}

func TestUpdateLink_RefreshesMetadata(t *testing.T) {
	repo := &mockLinkRepository{
		getOwnedFn: func(ctx context.Context, id, ownerID string) (*model.Link, error) {
			return &model.Link{ID: id, Slug: "abc1234", OriginalURL: "https://old.example.com"}, nil
		},
	}
	svc := newTestService(repo, func(deps *LinkServiceDeps) {
		deps.Metadata = &mockMetadataFetcher{
			fetchFn: func(ctx context.Context, pageURL string) (*PageMetadata, error) {
				return &PageMetadata{Title: "Example", Description: "A page", Image: "https://img.example.com/x.png"}, nil
			},
		}
	})

	url := "https://new.example.com"
	link, err := svc.UpdateLink(context.Background(), "link-1", "user-1", UpdateLinkInput{URL: &url})
	if err != nil {
		t.Fatalf("UpdateLink returned error: %v", err)
	}
	if link.MetaTitle != "Example" || link.MetaDescription != "A page" {
		t.Fatalf("expected refreshed metadata, got %+v", link)
	}
}

func TestDeleteLink_NotOwned(t *testing.T) {
	svc := newTestService(&mockLinkRepository{})

	err := svc.DeleteLink(context.Background(), "link-1", "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListLinks_RequiresOwner(t *testing.T) {
	svc := newTestService(&mockLinkRepository{})

	if _, err := svc.ListLinks(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
