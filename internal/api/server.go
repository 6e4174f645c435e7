// Package api exposes the nutrition pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/pipeline"
)

// NewServer builds the API with every route registered. Pipeline defaults
// are validated up front so a bad environment fails at startup.
func NewServer(serverConfig *config.ServerEnvConfig, pipelineConfig config.PipelineEnvConfig) (*Server, error) {
	if serverConfig == nil {
		return nil, errors.New("server config is required")
	}
	if _, err := pipeline.FromConfig(&pipelineConfig); err != nil {
		return nil, fmt.Errorf("invalid pipeline defaults: %w", err)
	}

	log.Info().
		Any("serverConfig", serverConfig).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:      false,
		ErrorHandler: fiberErrHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		BodyLimit:    serverConfig.BodySizeLimit,
		ReadTimeout:  serverConfig.ReadTimeout,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(ZstdMiddleware([]string{HealthPath}))

	s := &Server{
		App:      app,
		config:   serverConfig,
		pipeline: pipelineConfig,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.App.Get(HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(createResponse(HealthResponse{Status: "ok"}, nil))
	})

	ServeRoute(s, AnalyzePath, s.handleAnalyze)
	ServeRoute(s, RecommendPath, s.handleRecommend)
	ServeRoute(s, BoundsPath, s.handleBounds)
	s.App.Post(UploadPath, s.handleUpload)
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := statusCode(err)

	event := log.Warn()
	if code >= fiber.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// ServeRoute registers a JSON POST handler at path.
func ServeRoute[Req, Resp any](s *Server, path string, handler RouteHandler[Req, Resp]) {
	s.App.Post(path, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", path).
				Msg("Failed to parse request body")
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp, err := handler(c, req)
		if err != nil {
			return err
		}

		return c.JSON(createResponse(resp, nil))
	})
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		errCh <- s.App.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, gracefully shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		return s.App.ShutdownWithContext(shutdownCtx)
	}
}
