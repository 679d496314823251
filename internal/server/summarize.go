package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"scholarnet/internal/summarizer"
)

type summarizeRequest struct {
	Text        string `json:"text"`
	DocumentID  string `json:"document_id"`
	SummaryType string `json:"summary_type"`
	MaxLength   int    `json:"max_length"`
	Strategy    string `json:"strategy"`
}

func (s *Server) summarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.summarizer.Summarize(c.Request().Context(), summarizer.Request{
		Text:        req.Text,
		DocumentID:  req.DocumentID,
		SummaryType: req.SummaryType,
		MaxLength:   req.MaxLength,
		Strategy:    req.Strategy,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"summary":         result.Summary,
		"summary_type":    result.SummaryType,
		"source":          result.Source,
		"processing_info": result.Info,
	})
}
