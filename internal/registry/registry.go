// Package registry is the static description of every major: its catalog
// tables, numeric thresholds, sub-majors and general-education rules.
//
// The registry is loaded once at startup from YAML and is immutable after
// that, so a *Registry is safe for concurrent use.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
	"github.com/stemsi/degree-audit/internal/requirement"
)

//go:embed data/majors.yaml
var defaultData []byte

var (
	ErrUnknownMajor    = errors.New("unknown major")
	ErrUnknownSubMajor = errors.New("unknown sub-major")
	ErrInvalidRegistry = errors.New("invalid registry")
)

// ResolveError reports which input could not be resolved.
type ResolveError struct {
	Major    string
	SubMajor string
	Err      error
}

func (e *ResolveError) Error() string {
	if errors.Is(e.Err, ErrUnknownSubMajor) {
		return fmt.Sprintf("%v %q for major %q", e.Err, e.SubMajor, e.Major)
	}
	return fmt.Sprintf("%v %q", e.Err, e.Major)
}

func (e *ResolveError) Unwrap() error { return e.Err }

type ruleDoc struct {
	RequiredCount int      `yaml:"required_count"`
	Codes         []string `yaml:"codes"`
	Prefixes      []string `yaml:"prefixes"`
}

type tablesDoc struct {
	Core          string `yaml:"core"`
	Elective      string `yaml:"elective"`
	Supporting    string `yaml:"supporting"`
	Courses       string `yaml:"courses"`
	Prerequisites string `yaml:"prerequisites"`
}

type requirementsDoc struct {
	ElectiveCountNeeded   *int           `yaml:"elective_count_needed"`
	CoreCountNeeded       *int           `yaml:"core_count_needed"`
	SupportingCountNeeded *int           `yaml:"supporting_count_needed"`
	SupportingPrefixes    []string       `yaml:"supporting_prefixes"`
	Specializations       map[string]int `yaml:"specializations"`
}

type subMajorDoc struct {
	Aliases      []string        `yaml:"aliases"`
	Tables       tablesDoc       `yaml:"tables"`
	Requirements requirementsDoc `yaml:"requirements"`
}

type majorDoc struct {
	ID               int                    `yaml:"id"`
	Name             string                 `yaml:"name"`
	Aliases          []string               `yaml:"aliases"`
	Prefixes         []string               `yaml:"prefixes"`
	DefaultSubMajor  string                 `yaml:"default_sub_major"`
	Tables           tablesDoc              `yaml:"tables"`
	Requirements     requirementsDoc        `yaml:"requirements"`
	SubMajors        map[string]subMajorDoc `yaml:"sub_majors"`
	GeneralEducation map[string]ruleDoc     `yaml:"general_education"`
}

type document struct {
	GeneralEducationTable string             `yaml:"general_education_table"`
	Shared                map[string]ruleDoc `yaml:"shared"`
	Majors                []majorDoc         `yaml:"majors"`
}

type subMajor struct {
	key     string
	aliases []string
	tables  model.Tables
	req     requirementsDoc
}

type major struct {
	id         int
	name       string
	aliases    []string
	prefixes   []string
	defaultSub string
	tables     model.Tables
	req        requirementsDoc
	subs       map[string]*subMajor
	subOrder   []string
	genEd      map[requirement.GenEdCategory]requirement.GenEdRule
}

type nameEntry struct {
	majorID  int
	subMajor string
}

// Registry resolves free-text majors and serves their requirement data.
type Registry struct {
	genEdTable string
	majors     []*major
	byID       map[int]*major
	names      map[string]nameEntry
	prefixes   map[string]int
}

// Default loads the registry compiled into the binary.
func Default() (*Registry, error) {
	return Load(defaultData)
}

// LoadFile loads a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	return Load(data)
}

// Load parses and validates registry YAML.
func Load(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidRegistry, err)
	}
	return build(doc)
}

func build(doc document) (*Registry, error) {
	if len(doc.Majors) == 0 {
		return nil, fmt.Errorf("%w: no majors defined", ErrInvalidRegistry)
	}

	r := &Registry{
		genEdTable: strings.TrimSpace(doc.GeneralEducationTable),
		byID:       make(map[int]*major, len(doc.Majors)),
		names:      make(map[string]nameEntry),
		prefixes:   make(map[string]int),
	}

	for _, md := range doc.Majors {
		m, err := buildMajor(md)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byID[m.id]; dup {
			return nil, fmt.Errorf("%w: duplicate major id %d", ErrInvalidRegistry, m.id)
		}
		r.byID[m.id] = m
		r.majors = append(r.majors, m)

		for _, p := range m.prefixes {
			if owner, dup := r.prefixes[p]; dup {
				return nil, fmt.Errorf("%w: prefix %s claimed by majors %d and %d", ErrInvalidRegistry, p, owner, m.id)
			}
			r.prefixes[p] = m.id
		}
	}
	sort.Slice(r.majors, func(i, j int) bool { return r.majors[i].id < r.majors[j].id })

	if err := r.indexNames(); err != nil {
		return nil, err
	}
	return r, nil
}

func buildMajor(md majorDoc) (*major, error) {
	if md.ID <= 0 {
		return nil, fmt.Errorf("%w: major %q has no positive id", ErrInvalidRegistry, md.Name)
	}
	name := strings.TrimSpace(md.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: major %d has no name", ErrInvalidRegistry, md.ID)
	}

	m := &major{
		id:         md.ID,
		name:       name,
		aliases:    trimAll(md.Aliases),
		defaultSub: strings.TrimSpace(md.DefaultSubMajor),
		tables:     toTables(md.Tables),
		req:        md.Requirements,
		subs:       make(map[string]*subMajor, len(md.SubMajors)),
	}
	for _, p := range md.Prefixes {
		if code := normalize.CourseCode(p); code != "" {
			m.prefixes = append(m.prefixes, code)
		}
	}

	for key, sd := range md.SubMajors {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: major %d has an unnamed sub-major", ErrInvalidRegistry, m.id)
		}
		m.subs[key] = &subMajor{
			key:     key,
			aliases: trimAll(sd.Aliases),
			tables:  toTables(sd.Tables),
			req:     sd.Requirements,
		}
		m.subOrder = append(m.subOrder, key)
	}
	sort.Strings(m.subOrder)

	if len(m.subs) > 0 {
		if m.tables.Core != "" || m.tables.Elective != "" || m.tables.Supporting != "" {
			return nil, fmt.Errorf("%w: major %d has sub-majors and its own category tables", ErrInvalidRegistry, m.id)
		}
		if _, ok := m.subs[m.defaultSub]; !ok {
			return nil, fmt.Errorf("%w: major %d default_sub_major %q is not a sub-major", ErrInvalidRegistry, m.id, m.defaultSub)
		}
	} else if m.defaultSub != "" {
		return nil, fmt.Errorf("%w: major %d sets default_sub_major without sub-majors", ErrInvalidRegistry, m.id)
	}

	genEd, err := buildGenEd(m.id, md.GeneralEducation)
	if err != nil {
		return nil, err
	}
	m.genEd = genEd
	return m, nil
}

func buildGenEd(majorID int, docs map[string]ruleDoc) (map[requirement.GenEdCategory]requirement.GenEdRule, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: major %d has no general_education entry", ErrInvalidRegistry, majorID)
	}

	rules := make(map[requirement.GenEdCategory]requirement.GenEdRule, len(requirement.GenEdCategories))
	for label, rd := range docs {
		cat, ok := requirement.ParseGenEdCategory(label)
		if !ok {
			return nil, fmt.Errorf("%w: major %d has unknown general_education category %q", ErrInvalidRegistry, majorID, label)
		}
		if rd.RequiredCount < 0 {
			return nil, fmt.Errorf("%w: major %d %s has a negative required_count", ErrInvalidRegistry, majorID, label)
		}

		hasCodes, hasPrefixes := len(rd.Codes) > 0, len(rd.Prefixes) > 0
		switch {
		case hasCodes == hasPrefixes:
			return nil, fmt.Errorf("%w: major %d %s needs exactly one of codes or prefixes", ErrInvalidRegistry, majorID, label)
		case hasCodes:
			codes := orderedCodes(rd.Codes)
			if rd.RequiredCount > len(codes) {
				return nil, fmt.Errorf("%w: major %d %s requires %d of %d codes", ErrInvalidRegistry, majorID, label, rd.RequiredCount, len(codes))
			}
			rules[cat] = requirement.GenEdRule{RequiredCount: rd.RequiredCount, Rule: requirement.ExactCodes(codes)}
		default:
			rules[cat] = requirement.GenEdRule{RequiredCount: rd.RequiredCount, Rule: requirement.PrefixSet(orderedCodes(rd.Prefixes))}
		}
	}

	for _, cat := range requirement.GenEdCategories {
		if _, ok := rules[cat]; !ok {
			rules[cat] = requirement.GenEdRule{Rule: requirement.PrefixSet{}}
		}
	}
	return rules, nil
}

// indexNames builds the flat lookup used by Resolve. Major names, major
// aliases and sub-major aliases must be globally unique. Sub-major keys are
// only unique within their parent, so a key shared by two majors ("Normal") is
// left out of the flat index and must be given together with its major.
func (r *Registry) indexNames() error {
	add := func(label string, e nameEntry) error {
		k := normalize.Key(label)
		if k == "" {
			return nil
		}
		if prev, dup := r.names[k]; dup && prev != e {
			return fmt.Errorf("%w: name %q is used more than once", ErrInvalidRegistry, label)
		}
		r.names[k] = e
		return nil
	}

	for _, m := range r.majors {
		if err := add(m.name, nameEntry{majorID: m.id}); err != nil {
			return err
		}
		for _, a := range m.aliases {
			if err := add(a, nameEntry{majorID: m.id}); err != nil {
				return err
			}
		}
	}
	for _, m := range r.majors {
		for _, key := range m.subOrder {
			for _, a := range m.subs[key].aliases {
				if err := add(a, nameEntry{majorID: m.id, subMajor: key}); err != nil {
					return err
				}
			}
		}
	}

	keyOwners := make(map[string][]nameEntry)
	for _, m := range r.majors {
		for _, key := range m.subOrder {
			k := normalize.Key(key)
			keyOwners[k] = append(keyOwners[k], nameEntry{majorID: m.id, subMajor: key})
		}
	}
	for k, owners := range keyOwners {
		if len(owners) != 1 {
			continue
		}
		if _, taken := r.names[k]; taken {
			continue
		}
		r.names[k] = owners[0]
	}
	return nil
}

// Resolve maps free text onto a major. The name is tried against canonical
// names and aliases, then sub-major names; the course prefix hint is used
// only when the name matches nothing.
func (r *Registry) Resolve(name, prefixHint string) (model.MajorRef, error) {
	return r.ResolveWithSubMajor(name, "", prefixHint)
}

// ResolveWithSubMajor resolves the major and then the sub-major, which must
// belong to that major. Majors with sub-majors fall back to their default.
func (r *Registry) ResolveWithSubMajor(name, subMajor, prefixHint string) (model.MajorRef, error) {
	entry, ok := r.names[normalize.Key(name)]
	if !ok {
		entry, ok = r.entryForHint(prefixHint)
	}
	if !ok {
		label := strings.TrimSpace(name)
		if label == "" {
			label = strings.TrimSpace(prefixHint)
		}
		return model.MajorRef{}, &ResolveError{Major: label, Err: ErrUnknownMajor}
	}

	m := r.byID[entry.majorID]
	sub := entry.subMajor
	if k := normalize.Key(subMajor); k != "" {
		key, found := m.findSub(k)
		if !found {
			return model.MajorRef{}, &ResolveError{Major: m.name, SubMajor: strings.TrimSpace(subMajor), Err: ErrUnknownSubMajor}
		}
		sub = key
	} else if sub == "" && len(m.subs) > 0 {
		sub = m.defaultSub
	}

	return model.MajorRef{MajorID: m.id, Name: m.name, SubMajor: sub}, nil
}

// RefByID builds a MajorRef for a numeric major id and optional sub-major.
func (r *Registry) RefByID(id int, subMajor string) (model.MajorRef, error) {
	m, ok := r.byID[id]
	if !ok {
		return model.MajorRef{}, &ResolveError{Major: fmt.Sprintf("#%d", id), Err: ErrUnknownMajor}
	}
	ref := model.MajorRef{MajorID: m.id, Name: m.name}
	if k := normalize.Key(subMajor); k != "" {
		key, found := m.findSub(k)
		if !found {
			return model.MajorRef{}, &ResolveError{Major: m.name, SubMajor: strings.TrimSpace(subMajor), Err: ErrUnknownSubMajor}
		}
		ref.SubMajor = key
	} else if len(m.subs) > 0 {
		ref.SubMajor = m.defaultSub
	}
	return ref, nil
}

func (r *Registry) entryForHint(hint string) (nameEntry, bool) {
	prefix := normalize.Prefix(normalize.CourseCode(hint))
	if prefix == "" {
		return nameEntry{}, false
	}
	id, ok := r.prefixes[prefix]
	return nameEntry{majorID: id}, ok
}

func (m *major) findSub(key string) (string, bool) {
	for _, name := range m.subOrder {
		s := m.subs[name]
		if normalize.Key(s.key) == key {
			return s.key, true
		}
		for _, a := range s.aliases {
			if normalize.Key(a) == key {
				return s.key, true
			}
		}
	}
	return "", false
}

func (r *Registry) lookup(ref model.MajorRef) (*major, *subMajor, error) {
	m, ok := r.byID[ref.MajorID]
	if !ok {
		return nil, nil, &ResolveError{Major: fmt.Sprintf("#%d", ref.MajorID), Err: ErrUnknownMajor}
	}
	if ref.SubMajor == "" {
		if len(m.subs) > 0 {
			return m, m.subs[m.defaultSub], nil
		}
		return m, nil, nil
	}
	s, ok := m.subs[ref.SubMajor]
	if !ok {
		return nil, nil, &ResolveError{Major: m.name, SubMajor: ref.SubMajor, Err: ErrUnknownSubMajor}
	}
	return m, s, nil
}

// Thresholds returns the numeric requirements for ref. Sub-major values
// override the parent's; anything unset is zero.
func (r *Registry) Thresholds(ref model.MajorRef) (model.Thresholds, error) {
	m, s, err := r.lookup(ref)
	if err != nil {
		return model.Thresholds{}, err
	}

	req := m.req
	if s != nil {
		req = mergeRequirements(req, s.req)
	}

	t := model.Thresholds{
		ElectiveCountNeeded:   deref(req.ElectiveCountNeeded),
		CoreCountNeeded:       deref(req.CoreCountNeeded),
		SupportingCountNeeded: deref(req.SupportingCountNeeded),
		SupportingPrefixes:    orderedCodes(req.SupportingPrefixes),
	}
	if len(req.Specializations) > 0 {
		t.Specializations = make(map[string]int, len(req.Specializations))
		for k, v := range req.Specializations {
			t.Specializations[k] = v
		}
	}
	return t, nil
}

// Tables returns the catalog table ids for ref.
func (r *Registry) Tables(ref model.MajorRef) (model.Tables, error) {
	m, s, err := r.lookup(ref)
	if err != nil {
		return model.Tables{}, err
	}
	if s != nil {
		t := s.tables
		if t.Courses == "" {
			t.Courses = m.tables.Courses
		}
		if t.Prerequisites == "" {
			t.Prerequisites = m.tables.Prerequisites
		}
		return t, nil
	}
	return m.tables, nil
}

// GeneralEducationRules returns a rule for every sub-category. Exempt
// sub-categories carry an empty PrefixSet with a required count of zero.
func (r *Registry) GeneralEducationRules(ref model.MajorRef) (map[requirement.GenEdCategory]requirement.GenEdRule, error) {
	m, _, err := r.lookup(ref)
	if err != nil {
		return nil, err
	}
	rules := make(map[requirement.GenEdCategory]requirement.GenEdRule, len(m.genEd))
	for k, v := range m.genEd {
		rules[k] = v
	}
	return rules, nil
}

// GeneralEducationTable is the shared table used to look up names and
// credits of exact-code general-education courses.
func (r *Registry) GeneralEducationTable() string {
	return r.genEdTable
}

// MajorForPrefix maps a department code such as "CSCS" onto its major.
func (r *Registry) MajorForPrefix(prefix string) (model.MajorRef, bool) {
	id, ok := r.prefixes[normalize.Prefix(normalize.CourseCode(prefix))]
	if !ok {
		return model.MajorRef{}, false
	}
	m := r.byID[id]
	ref := model.MajorRef{MajorID: m.id, Name: m.name}
	if len(m.subs) > 0 {
		ref.SubMajor = m.defaultSub
	}
	return ref, true
}

// Majors lists every major ordered by id.
func (r *Registry) Majors() []model.MajorSummary {
	out := make([]model.MajorSummary, 0, len(r.majors))
	for _, m := range r.majors {
		ms := model.MajorSummary{
			ID:              m.id,
			Name:            m.name,
			Aliases:         append([]string{}, m.aliases...),
			DefaultSubMajor: m.defaultSub,
			SubMajors:       make([]model.SubMajorSummary, 0, len(m.subs)),
			Prefixes:        append([]string{}, m.prefixes...),
		}
		for _, key := range m.subOrder {
			ms.SubMajors = append(ms.SubMajors, model.SubMajorSummary{
				Key:     key,
				Aliases: append([]string{}, m.subs[key].aliases...),
			})
		}
		out = append(out, ms)
	}
	return out
}

// TableIDs returns every catalog table referenced by the registry, sorted.
func (r *Registry) TableIDs() []string {
	seen := make(map[string]struct{})
	add := func(t model.Tables) {
		for _, id := range []string{t.Core, t.Elective, t.Supporting, t.Courses} {
			if id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	for _, m := range r.majors {
		add(m.tables)
		for _, s := range m.subs {
			add(s.tables)
		}
	}
	if r.genEdTable != "" {
		seen[r.genEdTable] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func mergeRequirements(parent, child requirementsDoc) requirementsDoc {
	out := parent
	if child.ElectiveCountNeeded != nil {
		out.ElectiveCountNeeded = child.ElectiveCountNeeded
	}
	if child.CoreCountNeeded != nil {
		out.CoreCountNeeded = child.CoreCountNeeded
	}
	if child.SupportingCountNeeded != nil {
		out.SupportingCountNeeded = child.SupportingCountNeeded
	}
	if child.SupportingPrefixes != nil {
		out.SupportingPrefixes = child.SupportingPrefixes
	}
	if child.Specializations != nil {
		out.Specializations = child.Specializations
	}
	return out
}

func toTables(t tablesDoc) model.Tables {
	return model.Tables{
		Core:          strings.TrimSpace(t.Core),
		Elective:      strings.TrimSpace(t.Elective),
		Supporting:    strings.TrimSpace(t.Supporting),
		Courses:       strings.TrimSpace(t.Courses),
		Prerequisites: strings.TrimSpace(t.Prerequisites),
	}
}

// orderedCodes normalizes codes keeping their configured order.
func orderedCodes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		code := normalize.CourseCode(c)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
