package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"scholarnet/internal/parser"
)

// readDocument extracts text from an uploaded file without storing it.
func (s *Server) readDocument(c echo.Context) error {
	path, filename, err := s.receiveFile(c)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	extract, err := parser.ExtractText(path)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"filename": filename,
		"text":     extract.Text,
		"pages":    extract.Pages,
	})
}

// uploadDocument extracts, chunks and indexes an uploaded file.
func (s *Server) uploadDocument(c echo.Context) error {
	path, filename, err := s.receiveFile(c)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	extract, err := parser.ExtractText(path)
	if err != nil {
		return httpError(err)
	}

	documentID, chunks, err := s.store.Ingest(c.Request().Context(), filename, extract.Text, extract.Pages, s.upload.ChunkSize, s.upload.ChunkOverlap)
	if err != nil {
		return httpError(err)
	}

	log.Info().
		Str("document_id", documentID).
		Str("filename", filename).
		Int("chunks", chunks).
		Msg("document ingested")

	return c.JSON(http.StatusOK, map[string]any{
		"document_id": documentID,
		"filename":    filename,
		"chunks":      chunks,
		"pages":       extract.Pages,
		"message":     "document processed successfully",
	})
}

func (s *Server) listDocuments(c echo.Context) error {
	docs, err := s.store.ListAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) deleteDocument(c echo.Context) error {
	id := c.Param("id")
	deleted, err := s.store.DeleteByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %s not found", id))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"document_id": id,
		"message":     "document deleted",
	})
}

// receiveFile validates the multipart upload and spools it to the upload
// directory under a unique name. The caller removes the file when done.
func (s *Server) receiveFile(c echo.Context) (path, filename string, err error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	if !parser.SupportedExtension(header.Filename) {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported file format: %s", filepath.Ext(header.Filename)))
	}
	maxBytes := int64(s.upload.MaxFileSizeMB) << 20
	if header.Size > maxBytes {
		return "", "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB limit", s.upload.MaxFileSizeMB))
	}

	src, err := header.Open()
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	if err := os.MkdirAll(s.upload.Dir, 0o755); err != nil {
		return "", "", httpError(err)
	}
	path = filepath.Join(s.upload.Dir, uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", "", httpError(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", "", httpError(err)
	}
	return path, header.Filename, nil
}
