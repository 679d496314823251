// Package server exposes the pipeline over a thin HTTP API. All logic
// lives in the engines; handlers only bind requests and map errors.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"scholarnet/internal/chunker"
	"scholarnet/internal/config"
	"scholarnet/internal/docstore"
	"scholarnet/internal/llm"
	"scholarnet/internal/mcq"
	"scholarnet/internal/qa"
	"scholarnet/internal/summarizer"
)

type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (*summarizer.Result, error)
}

type MCQGenerator interface {
	Generate(ctx context.Context, req mcq.Request) (*mcq.Result, error)
}

type Answerer interface {
	Answer(ctx context.Context, req qa.Request) (*qa.Result, error)
}

type Server struct {
	echo       *echo.Echo
	store      *docstore.Store
	summarizer Summarizer
	mcq        MCQGenerator
	qa         Answerer
	sessions   *qa.SessionStore
	upload     config.UploadConfig
}

func New(store *docstore.Store, summ Summarizer, gen MCQGenerator, answerer Answerer, sessions *qa.SessionStore, upload config.UploadConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		store:      store,
		summarizer: summ,
		mcq:        gen,
		qa:         answerer,
		sessions:   sessions,
		upload:     upload,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)

	api := s.echo.Group("/api")
	api.POST("/pdf-read", s.readDocument)
	api.POST("/pdf-upload", s.uploadDocument)
	api.GET("/documents/list", s.listDocuments)
	api.DELETE("/documents/:id", s.deleteDocument)
	api.POST("/summarize", s.summarize)
	api.POST("/mcq", s.generateMCQ)
	api.POST("/qa", s.answerQuestion)
	api.GET("/qa/sessions", s.listSessions)
	api.GET("/qa/history/:id", s.sessionHistory)
	api.DELETE("/qa/history/:id", s.clearHistory)
	api.DELETE("/qa/session/:id", s.deleteSession)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// httpError maps the engine error taxonomy to status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, qa.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, chunker.ErrInvalidArgument),
		errors.Is(err, summarizer.ErrInvalidRequest),
		errors.Is(err, mcq.ErrInvalidRequest),
		errors.Is(err, qa.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrGenerationFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
