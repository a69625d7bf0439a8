// Package api serves the node state and fade controls over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/winsx/libavg/anim"
	"github.com/winsx/libavg/logger"
	"github.com/winsx/libavg/node"
	"github.com/winsx/libavg/stream"
)

// A Fader fades the node's opacity, taking over from anything else animating it.
type Fader interface {
	Fade(dir stream.FadeDirection, d time.Duration, max float64) error
}

type Server struct {
	echo     *echo.Echo
	node     *node.Node
	fader    Fader
	gatherer prometheus.Gatherer
	log      logger.Logger
}

func NewServer(n *node.Node, fader Fader, gatherer prometheus.Gatherer,
	log logger.Logger) *Server {

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		node:     n,
		fader:    fader,
		gatherer: gatherer,
		log:      log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.echo.GET("/api/node", s.handleNode)
	s.echo.POST("/api/fade", s.handleFade)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("api listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type nodeResponse struct {
	ID         string             `json:"id"`
	Attributes map[string]float64 `json:"attributes"`
}

func (s *Server) handleNode(c echo.Context) error {
	return c.JSON(http.StatusOK, nodeResponse{
		ID:         s.node.ID(),
		Attributes: s.node.Snapshot(),
	})
}

type fadeRequest struct {
	Direction  string  `json:"direction"`
	DurationMs int     `json:"durationMs"`
	MaxOpacity float64 `json:"maxOpacity"`
}

func (s *Server) handleFade(c echo.Context) error {
	var req fadeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	duration := time.Duration(req.DurationMs) * time.Millisecond

	dir := stream.FadeDirection(req.Direction)
	if dir != stream.FadeIn && dir != stream.FadeOut {
		return echo.NewHTTPError(http.StatusBadRequest, `direction must be "in" or "out"`)
	}

	err := s.fader.Fade(dir, duration, req.MaxOpacity)
	switch {
	case errors.Is(err, anim.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, anim.ErrInvalidTarget):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		return err
	}

	s.log.Debug("fade started", "direction", req.Direction, "duration", duration)
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}
