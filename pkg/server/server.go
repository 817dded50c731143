// Package server exposes the memory client over HTTP for the web front end.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/core"
	"github.com/ava-assistant/avamem-go/pkg/intelligence"
	"github.com/ava-assistant/avamem-go/pkg/tts"
)

// Assistant is the part of core.Client the HTTP layer uses.
type Assistant interface {
	HandleTurn(ctx context.Context, text string) string
	Classify(ctx context.Context, text string) intelligence.Classification
	AcceptFact(ctx context.Context, text string) core.AcceptResult
	Facts() []string
	Status() core.Status
}

var _ Assistant = (*core.Client)(nil)

// Server is the HTTP front of an Assistant.
//
// Example usage:
//
//	srv := server.New(client, speech, cfg.Server, log)
//	go srv.Run()
//	defer srv.Shutdown(ctx)
type Server struct {
	assistant Assistant
	speech    tts.Synthesizer
	staticDir string

	engine *gin.Engine
	http   *http.Server
	log    *logrus.Entry
}

// New builds the router and the underlying http.Server.
//
// Parameters:
//   - assistant: The memory client answering requests
//   - speech: Speech synthesizer for /api/chat (nil disables audio)
//   - cfg: Listen address, static directory, CORS and rate limit settings
//   - log: Logger (nil uses the standard logger)
func New(assistant Assistant, speech tts.Synthesizer, cfg core.ServerConfig, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		assistant: assistant,
		speech:    speech,
		staticDir: cfg.StaticDir,
		log:       log,
	}

	r := gin.New()
	r.Use(recovery(log), requestID(), requestLogger(log), cors(cfg.AllowedOrigins))

	r.GET("/", s.index)

	api := r.Group("/api")
	{
		api.GET("/status", s.status)
		api.GET("/facts", s.facts)

		model := api.Group("")
		model.Use(rateLimit(cfg.RateLimit, cfg.RateBurst))
		{
			model.POST("/analyze", s.analyze)
			model.POST("/chat", s.chat)
			model.POST("/accept", s.accept)
		}
	}

	s.engine = r
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Run() error {
	s.log.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
