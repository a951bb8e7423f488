package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
	"github.com/laghulabs/laghu/internal/app/service"
	infraprom "github.com/laghulabs/laghu/internal/infra/prometheus"
	"github.com/laghulabs/laghu/internal/http/middleware"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by the management API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Clicks      repository.ClickRepository
	Now         func() time.Time
}

// APIHandler implements the management API endpoints.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	clicks      repository.ClickRepository
	now         func() time.Time
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
		clicks:      deps.Clicks,
		now:         now,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		links := api.Group("/links")
		{
			links.Post("/", h.CreateLink)
			links.Get("/", middleware.RequireOwner(), h.ListLinks)
			links.Get("/:id", middleware.RequireOwner(), h.GetLink)
			links.Patch("/:id", middleware.RequireOwner(), h.UpdateLink)
			links.Delete("/:id", middleware.RequireOwner(), h.DeleteLink)
			links.Get("/:id/stats", middleware.RequireOwner(), h.LinkStats)
		}
	}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	URL        string     `json:"url"`
	CustomSlug string     `json:"custom_slug,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// LinkResponse is the wire shape of a link.
type LinkResponse struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	OriginalURL     string     `json:"original_url"`
	IsCustom        bool       `json:"is_custom"`
	ExpiresAt       *time.Time `json:"expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
	MetaTitle       string     `json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	MetaImage       string     `json:"meta_image,omitempty"`
}

func toLinkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		ID:              link.ID,
		Slug:            link.Slug,
		OriginalURL:     link.OriginalURL,
		IsCustom:        link.IsCustom,
		ExpiresAt:       link.ExpiresAt,
		CreatedAt:       link.CreatedAt,
		MetaTitle:       link.MetaTitle,
		MetaDescription: link.MetaDescription,
		MetaImage:       link.MetaImage,
	}
}

// CreateLink handles POST /api/links. Anonymous creation is allowed; owner
// identity, when present, enables the duplicate-URL and custom-slug flows.
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	input := service.CreateLinkInput{
		URL:        req.URL,
		CustomSlug: req.CustomSlug,
		ExpiresAt:  req.ExpiresAt,
	}
	if owner := middleware.OwnerID(c); owner != "" {
		input.OwnerID = &owner
	}

	result, err := h.linkService.CreateLink(h.userContext(c), input)
	if err != nil {
		return h.respondError(c, err, "failed to create link")
	}

	status := fiber.StatusCreated
	kind := "random"
	switch {
	case result.Reused:
		// Idempotent duplicate: the owner already shortened this URL.
		status = fiber.StatusOK
		kind = "reused"
	case result.Link.IsCustom:
		kind = "custom"
	}
	infraprom.LinksCreated.WithLabelValues(kind).Inc()

	return c.Status(status).JSON(fiber.Map{
		"short_url": result.ShortURL,
		"link":      toLinkResponse(result.Link),
		"reused":    result.Reused,
	})
}

// ListLinks handles GET /api/links, newest first.
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.linkService.ListLinks(h.userContext(c), middleware.OwnerID(c))
	if err != nil {
		return h.respondError(c, err, "failed to list links")
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		response[i] = toLinkResponse(&links[i])
	}

	active, expired := service.PartitionByExpiry(links, h.now())

	return c.JSON(fiber.Map{
		"links":   response,
		"count":   len(response),
		"active":  active,
		"expired": expired,
	})
}

// GetLink handles GET /api/links/:id.
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	link, err := h.linkService.GetLink(h.userContext(c), c.Params("id"), middleware.OwnerID(c))
	if err != nil {
		return h.respondError(c, err, "failed to get link")
	}

	return c.JSON(fiber.Map{
		"link":      toLinkResponse(link),
		"short_url": h.linkService.ShortURL(link.Slug),
	})
}

// UpdateLinkRequest represents the request body for updating a link.
type UpdateLinkRequest struct {
	URL       *string    `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UpdateLink handles PATCH /api/links/:id.
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.linkService.UpdateLink(h.userContext(c), c.Params("id"), middleware.OwnerID(c),
		service.UpdateLinkInput{
			URL:       req.URL,
			ExpiresAt: req.ExpiresAt,
		})
	if err != nil {
		return h.respondError(c, err, "failed to update link")
	}

	return c.JSON(fiber.Map{
		"link": toLinkResponse(link),
	})
}

// DeleteLink handles DELETE /api/links/:id. Clicks go with the link.
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	if err := h.linkService.DeleteLink(h.userContext(c), c.Params("id"), middleware.OwnerID(c)); err != nil {
		return h.respondError(c, err, "failed to delete link")
	}
	return c.JSON(fiber.Map{
		"message": "link deleted",
	})
}

// LinkStats handles GET /api/links/:id/stats: total clicks plus the daily
// series the dashboard charts.
func (h *APIHandler) LinkStats(c *fiber.Ctx) error {
	ctx := h.userContext(c)

	link, err := h.linkService.GetLink(ctx, c.Params("id"), middleware.OwnerID(c))
	if err != nil {
		return h.respondError(c, err, "failed to get link")
	}

	clicks, err := h.clicks.ListByLink(ctx, link.ID)
	if err != nil {
		h.logger.Error("failed to load clicks", zap.Error(err), zap.String("link_id", link.ID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"link_id":      link.ID,
		"total_clicks": service.TotalClicks(clicks),
		"daily":        service.AggregateByDay(clicks),
	})
}

func (h *APIHandler) userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// respondError maps the service error taxonomy onto HTTP statuses.
// Expected classes carry their message through; anything else is logged
// and collapses to a generic 500.
func (h *APIHandler) respondError(c *fiber.Ctx, err error, logMsg string) error {
	var status int
	switch {
	case errors.Is(err, service.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrQuotaExceeded):
		status = fiber.StatusUnprocessableEntity
	default:
		h.logger.Error(logMsg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
