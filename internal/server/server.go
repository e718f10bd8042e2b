// Package server exposes extraction over HTTP for callers without the
// binary. Each request is an independent single pass over the posted log
// body; no state crosses requests.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/reqsift/reqsift/internal/config"
	"github.com/reqsift/reqsift/internal/extract"
	"github.com/reqsift/reqsift/internal/filter"
	"github.com/reqsift/reqsift/internal/metrics"
	"github.com/reqsift/reqsift/internal/model"
	"github.com/reqsift/reqsift/internal/output"
	"github.com/reqsift/reqsift/internal/reader"
)

// Server holds the Gin engine and the extraction API's dependencies.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	log    *zap.SugaredLogger
	http   *http.Server
}

// New assembles the API server.
func New(cfg *config.Config, log *zap.SugaredLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(AccessLog(log))

	s := &Server{
		engine: engine,
		cfg:    cfg,
		log:    log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.POST("/api/v1/extract", s.handleExtract)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// handleExtract runs one extraction pass over the request body and returns
// the summary as CSV (default) or JSON lines. Query parameters: format,
// where (record predicate), lenient (skip malformed marker lines).
func (s *Server) handleExtract(c *gin.Context) {
	timer := prometheus.NewTimer(metrics.ExtractDuration)
	defer timer.ObserveDuration()

	var pred *filter.Filter
	if src := c.Query("where"); src != "" {
		f, err := filter.Compile(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pred = f
	}

	lenient, _ := strconv.ParseBool(c.DefaultQuery("lenient", "false"))
	opts := []extract.Option{extract.WithLogger(s.log)}
	if lenient {
		opts = append(opts, extract.WithLenient())
	}
	ex := extract.New(opts...)

	var buf bytes.Buffer
	var w output.Writer
	format := s.responseFormat(c)
	switch format {
	case "json":
		w = output.NewJSONWriter(&buf)
	case "csv":
		cw, err := output.NewCSVWriter(&buf)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		w = cw
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxBodyBytes)
	runErr := ex.Run(reader.New(body).Lines(), func(rec *model.Record) error {
		if pred != nil {
			ok, err := pred.Match(rec)
			if err != nil || !ok {
				return err
			}
		}
		return w.Write(rec)
	})

	counts := ex.Counts()
	metrics.LinesRead.Add(float64(counts.Lines))
	metrics.LinesSkipped.Add(float64(counts.Skipped))
	metrics.RecordsExtracted.Add(float64(counts.Records))
	metrics.MarkerErrors.WithLabelValues("lenient").Add(float64(counts.Malformed))

	if runErr != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(runErr, &maxErr):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "log body too large"})
		case errors.Is(runErr, extract.ErrMalformedMarker):
			metrics.MarkerErrors.WithLabelValues("sharp").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": runErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": runErr.Error()})
		}
		return
	}
	if err := w.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "json" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// responseFormat resolves ?format=, falling back to the Accept header.
func (s *Server) responseFormat(c *gin.Context) string {
	if f := c.Query("format"); f != "" {
		return strings.ToLower(f)
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return "json"
	}
	return "csv"
}

// Start runs the server. Blocks until Stop or a listener error.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.log.Infow("starting HTTP server", "addr", s.cfg.Server.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler { return s.engine }
