package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/laghulabs/laghu/internal/app/service"
	infraprom "github.com/laghulabs/laghu/internal/infra/prometheus"
	"github.com/laghulabs/laghu/internal/http/view"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger   *zap.Logger
	Resolver service.Resolver
	HomeURL  string
}

// RedirectHandler serves the resolution hot path.
type RedirectHandler struct {
	logger   *zap.Logger
	resolver service.Resolver
	homeURL  string
}

// NewRedirectHandler creates a redirect handler with the provided
// dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:   logger,
		resolver: deps.Resolver,
		homeURL:  deps.HomeURL,
	}
}

// Register wires redirect routes onto the provided router. The slug route
// must be registered last so it does not shadow /api or /health.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:slug", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "laghu",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /:slug. Missing and expired slugs answer with the
// same 404 page.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing slug",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := h.resolver.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			infraprom.Resolutions.WithLabelValues("not_found").Inc()
			return h.renderNotFound(c, slug)
		}
		infraprom.Resolutions.WithLabelValues("error").Inc()
		h.logger.Error("failed to resolve slug", zap.Error(err), zap.String("slug", slug))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	infraprom.Resolutions.WithLabelValues("hit").Inc()
	h.logger.Debug("redirecting short link", zap.String("slug", slug), zap.String("target", target))
	return c.Redirect(target, fiber.StatusFound)
}

func (h *RedirectHandler) renderNotFound(c *fiber.Ctx, slug string) error {
	html, err := view.RenderNotFoundPage(view.NotFoundPageData{
		Slug:    slug,
		HomeURL: h.homeURL,
	})
	if err != nil {
		h.logger.Error("failed to render not-found page", zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "short link not found",
		})
	}

	return c.Status(fiber.StatusNotFound).
		Type("html", "utf-8").
		SendString(html)
}
