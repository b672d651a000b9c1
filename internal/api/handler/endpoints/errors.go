package endpoints

import (
	"context"
	"errors"
	"fmt"
	"io"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/service"
	"modgraph/internal/export"
	"modgraph/internal/graph"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxDocumentBytes bounds request bodies carrying a project document
const maxDocumentBytes = 8 << 20

// bindDocument decodes the request body as a project document, keeping
// numeric literals as written.
func bindDocument(c *gin.Context) (*graph.Document, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return graph.DecodeDocument(body)
}

// writeError maps service errors to HTTP statuses
func writeError(c *gin.Context, logger zerolog.Logger, err error) {
	var verr *graph.ValidationErrors
	switch {
	case errors.As(err, &verr):
		messages := make([]string, 0, len(verr.Errors))
		for _, e := range verr.Errors {
			messages = append(messages, e.Error())
		}
		c.JSON(http.StatusBadRequest, response.APIError{Message: "invalid document", Data: messages})
	case errors.Is(err, service.ErrGraphTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, response.APIError{Message: err.Error()})
	case errors.Is(err, service.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, response.APIError{Message: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.APIError{Message: err.Error()})
	case errors.Is(err, export.ErrNoEmbeddedProject):
		c.JSON(http.StatusUnprocessableEntity, response.APIError{Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, response.APIError{Message: "request cancelled"})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "internal error"})
	}
}
