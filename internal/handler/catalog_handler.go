package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/degree-audit/internal/response"
	"github.com/stemsi/degree-audit/internal/service"
	"github.com/stemsi/degree-audit/internal/validator"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type prerequisiteQuery struct {
	Major      string `form:"major" binding:"required,notblank,max=100"`
	SubMajor   string `form:"sub_major" binding:"omitempty,max=100"`
	CourseCode string `form:"course_code" binding:"omitempty,max=32"`
}

func (h *CatalogHandler) ListTables(c *gin.Context) {
	tables, err := h.catalogService.ListTables(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tables": tables})
}

// ListCourses godoc
// GET /api/v1/catalog/tables/:table_id/courses?page=&per_page=
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := min(queryInt(c, "per_page", defaultPerPage), maxPerPage)

	courses, err := h.catalogService.TableCourses(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		failWithError(c, err)
		return
	}

	start := len(courses)
	if page-1 <= len(courses)/perPage {
		start = min((page-1)*perPage, len(courses))
	}
	end := min(start+perPage, len(courses))
	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"table_id": c.Param("table_id"), "courses": courses[start:end]},
		response.NewPagination(page, perPage, len(courses)),
	)
}

func (h *CatalogHandler) Prerequisites(c *gin.Context) {
	var q prerequisiteQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lookup, err := h.catalogService.Prerequisites(c.Request.Context(), q.Major, q.SubMajor, q.CourseCode)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lookup)
}

func (h *CatalogHandler) RefreshCache(c *gin.Context) {
	res, err := h.catalogService.RefreshCache(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// queryInt reads a positive integer query parameter.
func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
