package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
	"go.uber.org/zap"
)

// Resolver maps inbound slugs to destinations and records the visit. This
// is the hot path: a cache lookup, at most one store read, one click
// append, then the redirect target.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (string, error)
}

// ResolverDeps bundles collaborators for the resolver. Cache is optional;
// Now defaults to time.Now.
type ResolverDeps struct {
	Logger  *zap.Logger
	Links   repository.LinkRepository
	Clicks  ClickRecorder
	Cache   LinkCache
	Timeout time.Duration
	Now     func() time.Time
}

type resolver struct {
	logger  *zap.Logger
	links   repository.LinkRepository
	clicks  ClickRecorder
	cache   LinkCache
	timeout time.Duration
	now     func() time.Time
}

// NewResolver returns a Resolver over the given link store and click
// recorder.
func NewResolver(deps ResolverDeps) Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &resolver{
		logger:  logger,
		links:   deps.Links,
		clicks:  deps.Clicks,
		cache:   deps.Cache,
		timeout: timeout,
		now:     now,
	}
}

// Resolve looks up the slug, enforces expiry and appends one click.
// Expired links are indistinguishable from missing ones: both return
// ErrNotFound. Click recording is synchronous but non-fatal; a recorder
// failure is logged and the redirect still goes out.
func (r *resolver) Resolve(ctx context.Context, slug string) (string, error) {
	link, err := r.lookup(ctx, slug)
	if err != nil {
		return "", err
	}

	if link.Expired(r.now()) {
		if r.cache != nil {
			_ = r.cache.Invalidate(ctx, slug)
		}
		return "", fmt.Errorf("%w: slug %s", ErrNotFound, slug)
	}

	if err := r.clicks.Record(ctx, link.ID, r.now()); err != nil {
		r.logger.Error("failed to record click",
			zap.String("slug", slug),
			zap.String("link_id", link.ID),
			zap.Error(err))
	}

	return link.OriginalURL, nil
}

func (r *resolver) lookup(ctx context.Context, slug string) (*model.Link, error) {
	if r.cache != nil {
		if link, err := r.cache.Get(ctx, slug); err == nil {
			return link, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			r.logger.Warn("link cache read failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	readCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	link, err := r.links.GetBySlug(readCtx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, fmt.Errorf("%w: slug %s", ErrNotFound, slug)
		}
		return nil, fmt.Errorf("resolve %s: %w", slug, err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, link); err != nil {
			r.logger.Warn("link cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return link, nil
}
