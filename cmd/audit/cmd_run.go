package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stemsi/degree-audit/internal/audit"
	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/config"
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/service"
	"github.com/stemsi/degree-audit/internal/transcript"
)

var (
	runMajor      string
	runSubMajor   string
	runPrefix     string
	runTranscript string
	runCourses    []string
)

var runCmd = &cobra.Command{
	Use:     "run [COURSE_CODE...]",
	Aliases: []string{"audit"},
	Short:   "Audit completed courses against a major",
	Long: `Audit completed courses against a major.

Course codes may be given as arguments or with --courses, or as a transcript JSON file
(--transcript) holding [{"course_code","grade","semester"}] entries, in
which case failing grades are filtered out first.`,
	Example: `  audit run --major "Computer Science" --catalog catalog.yaml CSCS101 "math 120"
  audit run --major CS --courses CSCS101,MATH101
  audit run --major Psychology --sub-major Applied --transcript transcript.json --json`,
	RunE: runAudit,
}

func init() {
	runCmd.Flags().StringVarP(&runMajor, "major", "m", "", "Major name or alias")
	runCmd.Flags().StringVarP(&runSubMajor, "sub-major", "s", "", "Sub-major (concentration)")
	runCmd.Flags().StringVarP(&runPrefix, "prefix", "p", "", "Course prefix hint when the major name is unknown")
	runCmd.Flags().StringVarP(&runTranscript, "transcript", "t", "", "Transcript JSON file")
	runCmd.Flags().StringSliceVarP(&runCourses, "courses", "c", nil, "Comma-separated completed course codes")
}

func runAudit(cmd *cobra.Command, args []string) error {
	if runMajor == "" && runPrefix == "" {
		return fmt.Errorf("--major or --prefix is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	log := newLogger()
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	provider, closeCatalog, err := openCatalog(ctx, log)
	if err != nil {
		return err
	}
	defer closeCatalog()

	svc := newAuditService(reg, provider, config.Load(), log)

	out := cmd.OutOrStdout()

	if runTranscript != "" {
		entries, err := readTranscript(runTranscript)
		if err != nil {
			return err
		}
		res, err := svc.AuditTranscript(ctx, model.TranscriptAuditRequest{
			MajorName:    runMajor,
			SubMajor:     runSubMajor,
			CoursePrefix: runPrefix,
			Entries:      entries,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, res)
		}
		renderReport(out, res.Report)
		renderFailed(out, res.FailedCourses)
		return nil
	}

	report, err := svc.Audit(ctx, model.AuditRequest{
		MajorName:            runMajor,
		SubMajor:             runSubMajor,
		CoursePrefix:         runPrefix,
		CompletedCourseCodes: append(append([]string{}, runCourses...), args...),
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, report)
	}
	renderReport(out, report)
	return nil
}

// newAuditService wires the engine the same way the server does, including
// the per-table fetch timeout.
func newAuditService(reg audit.Registry, provider catalog.Provider, cfg *config.Config, log zerolog.Logger) service.AuditService {
	resolver := audit.NewResolver(reg, provider, cfg.CatalogFetchTimeout, log)
	return service.NewAuditService(audit.NewEngine(resolver, log), transcript.NewFilter(cfg.PassingGrades))
}

func readTranscript(path string) ([]model.TranscriptEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []model.TranscriptEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return entries, nil
}
