package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"scholarnet/internal/mcq"
)

type mcqRequest struct {
	Text         string `json:"text"`
	DocumentID   string `json:"document_id"`
	NumQuestions int    `json:"num_questions"`
}

func (s *Server) generateMCQ(c echo.Context) error {
	var req mcqRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.mcq.Generate(c.Request().Context(), mcq.Request{
		Text:         req.Text,
		DocumentID:   req.DocumentID,
		NumQuestions: req.NumQuestions,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"questions":       result.Questions,
		"total_questions": result.Total,
		"rejected":        result.Rejected,
		"source":          result.Source,
	})
}
