package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/degree-audit/internal/response"
	"github.com/stemsi/degree-audit/internal/service"
	"github.com/stemsi/degree-audit/internal/validator"
)

type MajorHandler struct {
	majorService service.MajorService
}

func NewMajorHandler(majorService service.MajorService) *MajorHandler {
	return &MajorHandler{majorService: majorService}
}

type resolveQuery struct {
	Name     string `form:"name" binding:"required_without=Prefix,max=100"`
	SubMajor string `form:"sub_major" binding:"omitempty,max=100"`
	Prefix   string `form:"prefix" binding:"omitempty,max=10"`
}

func (h *MajorHandler) GetAll(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"majors": h.majorService.ListMajors()})
}

func (h *MajorHandler) Resolve(c *gin.Context) {
	var q resolveQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ref, err := h.majorService.Resolve(q.Name, q.SubMajor, q.Prefix)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"major": ref})
}

func (h *MajorHandler) Requirements(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.majorService.Requirements(id, c.Query("sub_major"))
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
