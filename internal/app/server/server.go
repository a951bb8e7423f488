package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laghulabs/laghu/internal/app/repository"
	"github.com/laghulabs/laghu/internal/app/service"
	inthttp "github.com/laghulabs/laghu/internal/http/handler"
	"github.com/laghulabs/laghu/internal/http/middleware"
	"github.com/laghulabs/laghu/internal/http/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles everything required by the HTTP server.
type Dependencies struct {
	Logger      *zap.Logger
	Postgres    *pgxpool.Pool
	Redis       *redis.Client
	Links       repository.LinkRepository
	Clicks      repository.ClickRepository
	LinkService service.LinkService
	Resolver    service.Resolver
	Secret      []byte
	BaseURL     string
	Now         func() time.Time
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

const authTokenTTL = 24 * time.Hour

// New creates a new HTTP server instance with default middleware and
// routes.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	signer := util.NewTokenSigner(s.deps.Secret, authTokenTTL)

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	s.app.Use(middleware.Identity(signer))

	if s.deps.Redis != nil {
		s.app.Use("/api/links", func(c *fiber.Ctx) error {
			if c.Method() != fiber.MethodPost {
				return c.Next()
			}
			return middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger)(c)
		})
	}
}

func (s *Server) registerRoutes() {
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.LinkService,
		Clicks:      s.deps.Clicks,
		Now:         s.deps.Now,
	})
	apiHandler.Register(s.app)

	// Registered last: /:slug would otherwise shadow the API routes.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:   s.deps.Logger,
		Resolver: s.deps.Resolver,
		HomeURL:  s.deps.BaseURL,
	})
	redirectHandler.Register(s.app)
}
