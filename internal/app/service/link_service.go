package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
	"go.uber.org/zap"
)

var customSlugPattern = regexp.MustCompile(`^[a-z0-9_-]{3,20}$`)

// LinkPolicy carries the tunable rules the registry enforces.
type LinkPolicy struct {
	BaseURL        string
	SlugLength     int
	MaxSlugTries   int
	CustomSlugCap  int
	DefaultLinkTTL time.Duration
}

// LinkService mediates all link creation and lifecycle operations.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*CreateLinkResult, error)
	GetLink(ctx context.Context, id, ownerID string) (*model.Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]model.Link, error)
	UpdateLink(ctx context.Context, id, ownerID string, input UpdateLinkInput) (*model.Link, error)
	DeleteLink(ctx context.Context, id, ownerID string) error
	ShortURL(slug string) string
}

// LinkServiceDeps bundles collaborators for the registry. Filter, Cache and
// Metadata are optional; Now defaults to time.Now.
type LinkServiceDeps struct {
	Logger   *zap.Logger
	Repo     repository.LinkRepository
	Filter   *SlugFilter
	Cache    LinkCache
	Metadata MetadataFetcher
	Policy   LinkPolicy
	Now      func() time.Time
}

type linkService struct {
	logger   *zap.Logger
	repo     repository.LinkRepository
	filter   *SlugFilter
	cache    LinkCache
	metadata MetadataFetcher
	policy   LinkPolicy
	now      func() time.Time
}

// NewLinkService returns a registry backed by the given repository.
func NewLinkService(deps LinkServiceDeps) LinkService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	policy := deps.Policy
	if policy.SlugLength <= 0 {
		policy.SlugLength = DefaultSlugLength
	}
	if policy.MaxSlugTries <= 0 {
		policy.MaxSlugTries = 20
	}
	if policy.CustomSlugCap <= 0 {
		policy.CustomSlugCap = 5
	}
	return &linkService{
		logger:   logger,
		repo:     deps.Repo,
		filter:   deps.Filter,
		cache:    deps.Cache,
		metadata: deps.Metadata,
		policy:   policy,
		now:      now,
	}
}

// CreateLinkInput captures data required to create a link. OwnerID is nil
// for anonymous creation.
type CreateLinkInput struct {
	URL        string
	OwnerID    *string
	CustomSlug string
	ExpiresAt  *time.Time
}

// CreateLinkResult is the created (or reused) link plus its composed short
// URL. Reused marks the idempotent duplicate-URL outcome: the owner already
// shortened this URL and got the existing row back.
type CreateLinkResult struct {
	Link     *model.Link
	ShortURL string
	Reused   bool
}

// UpdateLinkInput captures fields that can be changed on an existing link.
type UpdateLinkInput struct {
	URL       *string
	ExpiresAt *time.Time
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*CreateLinkResult, error) {
	normalized, err := validateURL(input.URL)
	if err != nil {
		return nil, err
	}

	// Idempotent duplicate policy: an owner re-shortening the same URL
	// gets the existing link back instead of a second row.
	if input.OwnerID != nil {
		existing, err := s.repo.FindByOwnerAndURL(ctx, *input.OwnerID, normalized)
		switch {
		case err == nil:
			return &CreateLinkResult{
				Link:     existing,
				ShortURL: s.ShortURL(existing.Slug),
				Reused:   true,
			}, nil
		case errors.Is(err, repository.ErrLinkNotFound):
		default:
			return nil, fmt.Errorf("duplicate lookup: %w", err)
		}
	}

	link := &model.Link{
		ID:          uuid.New().String(),
		OriginalURL: normalized,
		OwnerID:     input.OwnerID,
		ExpiresAt:   s.expiryFor(input),
	}

	if input.CustomSlug != "" {
		if err := s.createCustom(ctx, link, input.CustomSlug); err != nil {
			return nil, err
		}
	} else {
		if err := s.createGenerated(ctx, link); err != nil {
			return nil, err
		}
	}

	if s.filter != nil {
		s.filter.Add(link.Slug)
	}

	return &CreateLinkResult{
		Link:     link,
		ShortURL: s.ShortURL(link.Slug),
	}, nil
}

func (s *linkService) createCustom(ctx context.Context, link *model.Link, slug string) error {
	if link.OwnerID == nil {
		return fmt.Errorf("%w: custom slugs require an authenticated owner", ErrUnauthorized)
	}
	if !customSlugPattern.MatchString(slug) {
		return fmt.Errorf("%w: custom slug must match %s", ErrValidation, customSlugPattern)
	}

	count, err := s.repo.CountCustomByOwner(ctx, *link.OwnerID)
	if err != nil {
		return fmt.Errorf("custom slug quota lookup: %w", err)
	}
	if count >= int64(s.policy.CustomSlugCap) {
		return fmt.Errorf("%w: at most %d custom slugs per owner", ErrQuotaExceeded, s.policy.CustomSlugCap)
	}

	// Friendly pre-check; the unique index still has the final word.
	taken, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return fmt.Errorf("slug existence check: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: slug %q is already taken", ErrConflict, slug)
	}

	link.Slug = slug
	link.IsCustom = true
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return fmt.Errorf("%w: slug %q is already taken", ErrConflict, slug)
		}
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}

func (s *linkService) createGenerated(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < s.policy.MaxSlugTries; attempt++ {
		slug := GenerateSlug(s.policy.SlugLength)

		// The bloom filter gives a definitive "never issued" for most
		// fresh slugs, skipping the existence probe entirely.
		if s.filter != nil && s.filter.MayExist(slug) {
			taken, err := s.repo.SlugExists(ctx, slug)
			if err != nil {
				return fmt.Errorf("slug existence check: %w", err)
			}
			if taken {
				continue
			}
		}

		link.Slug = slug
		err := s.repo.Create(ctx, link)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrSlugTaken) {
			// Lost the check-then-insert race; regenerate.
			s.logger.Debug("slug collision, retrying",
				zap.String("slug", slug),
				zap.Int("attempt", attempt+1))
			continue
		}
		return fmt.Errorf("create link: %w", err)
	}
	return fmt.Errorf("%w after %d attempts", ErrSlugSpaceExhausted, s.policy.MaxSlugTries)
}

// expiryFor applies the expiration policy: explicit values win, the
// authenticated flow defaults to now + DefaultLinkTTL, anonymous links
// never expire.
func (s *linkService) expiryFor(input CreateLinkInput) *time.Time {
	if input.ExpiresAt != nil {
		return input.ExpiresAt
	}
	if input.OwnerID == nil || s.policy.DefaultLinkTTL <= 0 {
		return nil
	}
	t := s.now().Add(s.policy.DefaultLinkTTL)
	return &t
}

func (s *linkService) GetLink(ctx context.Context, id, ownerID string) (*model.Link, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthorized)
	}
	link, err := s.repo.GetOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, fmt.Errorf("%w: link %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, ownerID string) ([]model.Link, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthorized)
	}
	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) UpdateLink(ctx context.Context, id, ownerID string, input UpdateLinkInput) (*model.Link, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthorized)
	}
	link, err := s.repo.GetOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, fmt.Errorf("%w: link %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load link: %w", err)
	}

	if input.URL != nil {
		normalized, err := validateURL(*input.URL)
		if err != nil {
			return nil, err
		}
		link.OriginalURL = normalized
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}

	s.refreshMetadata(ctx, link)

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, link.Slug); err != nil {
			s.logger.Warn("failed to invalidate link cache",
				zap.String("slug", link.Slug), zap.Error(err))
		}
	}

	return link, nil
}

// refreshMetadata repopulates the cached page preview. Strictly
// best-effort: fetch failures leave the stored fields untouched and never
// fail the update.
func (s *linkService) refreshMetadata(ctx context.Context, link *model.Link) {
	if s.metadata == nil {
		return
	}
	meta, err := s.metadata.Fetch(ctx, link.OriginalURL)
	if err != nil {
		s.logger.Debug("metadata refresh failed",
			zap.String("url", link.OriginalURL), zap.Error(err))
		return
	}
	link.MetaTitle = meta.Title
	link.MetaDescription = meta.Description
	link.MetaImage = meta.Image
}

func (s *linkService) DeleteLink(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: caller identity required", ErrUnauthorized)
	}
	link, err := s.repo.GetOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return fmt.Errorf("%w: link %s", ErrNotFound, id)
		}
		return fmt.Errorf("load link: %w", err)
	}

	if err := s.repo.Delete(ctx, link.ID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, link.Slug); err != nil {
			s.logger.Warn("failed to invalidate link cache",
				zap.String("slug", link.Slug), zap.Error(err))
		}
	}
	return nil
}

func (s *linkService) ShortURL(slug string) string {
	return strings.TrimSuffix(s.policy.BaseURL, "/") + "/" + slug
}

// validateURL checks that raw parses as an absolute URL and returns it
// unchanged on success.
func validateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: url is required", ErrValidation)
	}
	u, err := url.Parse(trimmed)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not a valid absolute URL", ErrValidation, trimmed)
	}
	return trimmed, nil
}
