package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"scholarnet/internal/qa"
)

type qaRequest struct {
	Question  string `json:"question"`
	Context   string `json:"context"`
	SessionID string `json:"session_id"`
}

func (s *Server) answerQuestion(c echo.Context) error {
	var req qaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.qa.Answer(c.Request().Context(), qa.Request{
		Question:  req.Question,
		Context:   req.Context,
		SessionID: req.SessionID,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"answer":     result.Answer,
		"sources":    result.Sources,
		"session_id": result.SessionID,
	})
}

func (s *Server) listSessions(c echo.Context) error {
	ids := s.sessions.ListActive()
	return c.JSON(http.StatusOK, map[string]any{
		"sessions": ids,
		"count":    len(ids),
	})
}

func (s *Server) sessionHistory(c echo.Context) error {
	id := c.Param("id")
	messages, err := s.sessions.History(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   messages,
		"count":      len(messages),
	})
}

func (s *Server) clearHistory(c echo.Context) error {
	id := c.Param("id")
	if err := s.sessions.Clear(id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"session_id": id,
		"message":    "conversation history cleared",
	})
}

func (s *Server) deleteSession(c echo.Context) error {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		return echo.NewHTTPError(http.StatusNotFound, "session "+id+" not found")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"session_id": id,
		"message":    "session deleted",
	})
}
