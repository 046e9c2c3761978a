// Package server exposes merging and receipt rendering over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/lvillar/drivepay/config"
	"github.com/lvillar/drivepay/pageops"
)

// Server is the HTTP API.
type Server struct {
	cfg      *config.Config
	defaults *config.Defaults
	combiner *pageops.Combiner
	echo     *echo.Echo
}

// New builds the API with its routes and middleware. A nil defaults uses
// config.BuiltinDefaults.
func New(cfg *config.Config, defaults *config.Defaults) *Server {
	if defaults == nil {
		defaults = config.BuiltinDefaults()
	}
	s := &Server{
		cfg:      cfg,
		defaults: defaults,
		combiner: pageops.NewCombiner(pageops.WithParallelism(cfg.MergeParallelism)),
		echo:     echo.New(),
	}

	e := s.echo
	e.HideBanner = true

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  cfg.AllowedOrigins,
		ExposeHeaders: []string{headerPageCount, echo.HeaderContentDisposition},
	}))
	e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB)))

	e.GET("/healthz", s.health)

	api := e.Group("/api")
	{
		api.GET("/defaults", s.getDefaults)
		api.POST("/merge", s.merge)
		api.POST("/salary-slips", s.renderSalarySlip)
		api.POST("/salary-slips/layout", s.salarySlipLayout)
		api.POST("/salary-slips/batch", s.renderSalarySlipBatch)
		api.POST("/book-bills", s.renderBookBill)
	}
	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("Server starting on port %s (%s)", s.cfg.Port, s.cfg.Environment)
	err := s.echo.Start(":" + s.cfg.Port)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
