package service

import (
	"context"

	"github.com/stemsi/degree-audit/internal/audit"
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/transcript"
)

type AuditService interface {
	Audit(ctx context.Context, req model.AuditRequest) (*model.AuditReport, error)
	AuditTranscript(ctx context.Context, req model.TranscriptAuditRequest) (*model.TranscriptAuditResponse, error)
}

type auditService struct {
	engine *audit.Engine
	filter *transcript.Filter
}

func NewAuditService(engine *audit.Engine, filter *transcript.Filter) AuditService {
	return &auditService{engine: engine, filter: filter}
}

func (s *auditService) Audit(ctx context.Context, req model.AuditRequest) (*model.AuditReport, error) {
	return s.engine.Audit(ctx, req)
}

// AuditTranscript drops non-passing grades before auditing, then adds the
// failed courses and a per-semester breakdown to the result.
func (s *auditService) AuditTranscript(ctx context.Context, req model.TranscriptAuditRequest) (*model.TranscriptAuditResponse, error) {
	passing := s.filter.Passing(req.Entries)

	report, err := s.engine.Audit(ctx, model.AuditRequest{
		MajorName:            req.MajorName,
		SubMajor:             req.SubMajor,
		CoursePrefix:         req.CoursePrefix,
		CompletedCourseCodes: transcript.Codes(passing),
	})
	if err != nil {
		return nil, err
	}

	return &model.TranscriptAuditResponse{
		Report:        report,
		FailedCourses: s.filter.Failed(req.Entries),
		Semesters:     s.filter.BySemester(req.Entries),
	}, nil
}
