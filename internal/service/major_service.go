package service

import (
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/registry"
	"github.com/stemsi/degree-audit/internal/requirement"
)

type MajorService interface {
	ListMajors() []model.MajorSummary
	Resolve(name, subMajor, prefix string) (model.MajorRef, error)
	Requirements(majorID int, subMajor string) (*model.RequirementsView, error)
}

type majorService struct {
	registry *registry.Registry
}

func NewMajorService(reg *registry.Registry) MajorService {
	return &majorService{registry: reg}
}

func (s *majorService) ListMajors() []model.MajorSummary {
	return s.registry.Majors()
}

func (s *majorService) Resolve(name, subMajor, prefix string) (model.MajorRef, error) {
	return s.registry.ResolveWithSubMajor(name, subMajor, prefix)
}

func (s *majorService) Requirements(majorID int, subMajor string) (*model.RequirementsView, error) {
	ref, err := s.registry.RefByID(majorID, subMajor)
	if err != nil {
		return nil, err
	}

	thresholds, err := s.registry.Thresholds(ref)
	if err != nil {
		return nil, err
	}
	tables, err := s.registry.Tables(ref)
	if err != nil {
		return nil, err
	}
	rules, err := s.registry.GeneralEducationRules(ref)
	if err != nil {
		return nil, err
	}

	view := &model.RequirementsView{
		Major:            ref,
		Thresholds:       thresholds,
		Tables:           tables,
		GeneralEducation: make(map[string]model.GenEdRuleView, len(rules)),
	}
	for _, cat := range requirement.GenEdCategories {
		rule := rules[cat]
		rv := model.GenEdRuleView{
			Rule:          model.RulePrefix,
			RequiredCount: rule.RequiredCount,
			Candidates:    []string{},
		}
		if rule.Rule != nil {
			rv.Rule = rule.Rule.Kind()
			rv.Candidates = append(rv.Candidates, rule.Rule.Values()...)
		}
		view.GeneralEducation[string(cat)] = rv
	}
	return view, nil
}
