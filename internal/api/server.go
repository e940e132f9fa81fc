// Package api exposes stored CVs, jobs and analyses over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/profile"
	"github.com/spigell/cv-matcher/internal/storage"
)

const (
	appName          = "cv-matcher"
	defaultRateLimit = 60
	readyTimeout     = 2 * time.Second
)

// Store is the persistence the API needs.
type Store interface {
	Ping(ctx context.Context) error

	CreateCV(ctx context.Context, cv *storage.CV) error
	GetCV(ctx context.Context, id uuid.UUID) (*storage.CV, error)
	ListCVs(ctx context.Context, skip, limit int) ([]storage.CV, error)
	SearchCVs(ctx context.Context, name string) ([]storage.CV, error)
	DeleteCV(ctx context.Context, id uuid.UUID) error

	CreateJob(ctx context.Context, job *storage.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*storage.Job, error)
	ListJobs(ctx context.Context, skip, limit int) ([]storage.Job, error)
	SearchJobs(ctx context.Context, title string) ([]storage.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error

	CreateAnalysis(ctx context.Context, a *storage.Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*storage.Analysis, error)
	ListAnalyses(ctx context.Context, skip, limit int) ([]storage.Analysis, error)
	AnalysesByCV(ctx context.Context, cvID uuid.UUID) ([]storage.Analysis, error)
	AnalysesByJob(ctx context.Context, jobID uuid.UUID) ([]storage.Analysis, error)
	TopCandidates(ctx context.Context, jobID uuid.UUID, limit int) ([]storage.Analysis, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Comparer runs a comparison.
type Comparer interface {
	Compare(ctx context.Context, cv *profile.CandidateProfile, job *profile.JobRequirement, overrides map[string]float64) *matching.Report
}

type Config struct {
	Listen string `mapstructure:"listen"`
	// RateLimit is the number of requests a client may send per minute.
	RateLimit int `mapstructure:"rate-limit"`
}

type Server struct {
	app     *fiber.App
	store   Store
	matcher Comparer
	logger  *zap.Logger
}

func New(cfg Config, store Store, matcher Comparer, log *zap.Logger) *Server {
	s := &Server{
		store:   store,
		matcher: matcher,
		logger:  logger.WithFields(log, zap.String("component", "api")),
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLog)
	s.app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(*fiber.Ctx) bool { return true },
		ReadinessProbe: func(c *fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
			defer cancel()
			return s.store.Ping(ctx) == nil
		},
	}))
	s.app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return failure(c, fiber.StatusTooManyRequests, "too many requests")
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	cvs := s.app.Group("/cvs")
	cvs.Post("/", s.createCV)
	cvs.Get("/", s.listCVs)
	cvs.Get("/search/:name", s.searchCVs)
	cvs.Get("/:id", s.getCV)
	cvs.Delete("/:id", s.deleteCV)
	cvs.Get("/:id/analyses", s.cvAnalyses)

	jobs := s.app.Group("/jobs")
	jobs.Post("/", s.createJob)
	jobs.Get("/", s.listJobs)
	jobs.Get("/search/:name", s.searchJobs)
	jobs.Get("/:id", s.getJob)
	jobs.Delete("/:id", s.deleteJob)
	jobs.Get("/:id/analyses", s.jobAnalyses)
	jobs.Get("/:id/top-candidates", s.topCandidates)

	s.app.Post("/analyze/:cv_id/:job_id", s.analyze)
	s.app.Get("/analyses", s.listAnalyses)
	s.app.Get("/analyses/:id", s.getAnalysis)
	s.app.Get("/stats", s.stats)
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)
	return err
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
