// Package server exposes the document loader over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/fsx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// DefaultBodyLimit caps uploaded documents
const DefaultBodyLimit = 64 << 20

// Loader turns a source into a Document
type Loader interface {
	Load(ctx context.Context, src any) (*document.Document, error)
}

// Server is the HTTP surface around a Loader
type Server struct {
	app        *fiber.App
	loader     Loader
	output     fsx.FileSystem
	logger     *logx.Logger
	localPaths bool
	bodyLimit  int
}

// Option configures a Server
type Option func(*Server)

// WithOutput enables ?save=true, which writes each loaded document to fs
func WithOutput(fs fsx.FileSystem) Option {
	return func(s *Server) { s.output = fs }
}

// WithLogger sets the logger
func WithLogger(l *logx.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocalPaths lets requests name files on the server's disk. Off by
// default: only URLs and uploaded bytes are accepted.
func WithLocalPaths(allow bool) Option {
	return func(s *Server) { s.localPaths = allow }
}

// WithBodyLimit sets the largest accepted request body in bytes
func WithBodyLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bodyLimit = n
		}
	}
}

// New builds the routes around loader
func New(loader Loader, opts ...Option) *Server {
	s := &Server{
		loader:    loader,
		logger:    logx.GetLogger().With("server"),
		bodyLimit: DefaultBodyLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "doccraft",
		BodyLimit:             s.bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)

	s.routes()
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.app.ShutdownWithTimeout(30 * time.Second)
	}
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		var xe *errx.Error
		switch {
		case errors.As(err, &xe):
			status = xe.HTTPStatus
		case errors.As(err, &fe):
			status = fe.Code
		}
		if status < fiber.StatusBadRequest {
			status = fiber.StatusInternalServerError
		}
	}
	s.logger.Info("%s %s %d %s", c.Method(), c.Path(), status, time.Since(start).Round(time.Millisecond))
	return err
}

// handleError renders every error as an errx JSON body
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var xerr *errx.Error
	if errors.As(err, &xerr) {
		if xerr.HTTPStatus >= fiber.StatusInternalServerError {
			s.logger.Error("%s %s: %v", c.Method(), c.Path(), err)
		}
		return xerr.ToFiber(c)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(&errx.Error{
			Code:    errx.Code(fmt.Sprintf("HTTP_%d", fe.Code)),
			Type:    errx.TypeBadRequest,
			Message: fe.Message,
		})
	}

	s.logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	return errx.Wrap(err, "Internal server error", errx.TypeInternal).ToFiber(c)
}
