package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/registry"
	"github.com/stemsi/degree-audit/internal/response"
	"github.com/stemsi/degree-audit/internal/service"
)

// failWithError maps domain errors onto the response envelope.
func failWithError(c *gin.Context, err error) {
	var storageErr *catalog.StorageError
	switch {
	case errors.Is(err, registry.ErrUnknownSubMajor):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrUnknownSubMajor, err.Error())
	case errors.Is(err, registry.ErrUnknownMajor):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrUnknownMajor, err.Error())
	case errors.Is(err, catalog.ErrTableNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTableNotFound)
	case errors.Is(err, service.ErrNoPrerequisiteTable):
		response.Fail(c, http.StatusNotFound, response.ErrNoPrerequisites)
	case errors.As(err, &storageErr), errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		response.Fail(c, http.StatusServiceUnavailable, response.ErrCatalogUnavailable)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
