package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/response"
	"github.com/stemsi/degree-audit/internal/service"
	"github.com/stemsi/degree-audit/internal/validator"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RunAudit godoc
// POST /api/v1/audits
func (h *AuditHandler) RunAudit(c *gin.Context) {
	var req model.AuditRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.auditService.Audit(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// RunTranscriptAudit godoc
// POST /api/v1/audits/transcript
func (h *AuditHandler) RunTranscriptAudit(c *gin.Context) {
	var req model.TranscriptAuditRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.auditService.AuditTranscript(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
