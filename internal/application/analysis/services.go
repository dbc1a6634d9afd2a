package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/juriscope/internal/application"
	"github.com/bryanwahyu/juriscope/internal/domain/ai"
	"github.com/bryanwahyu/juriscope/internal/domain/clauses"
	"github.com/bryanwahyu/juriscope/internal/domain/incidents"
	"github.com/bryanwahyu/juriscope/internal/domain/reports"
	"github.com/bryanwahyu/juriscope/internal/infra/ai/prompt"
)

// DefaultTimeout bounds one outbound model call.
const DefaultTimeout = 60 * time.Second

var (
	// ErrInvalidInput is returned for empty text, blocks or prompts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream wraps model failures surfaced to the client.
	ErrUpstream = errors.New("analysis upstream failure")
)

// Service sequences model call, normalization, fallback and aggregation.
// Reports and Incidents are optional. Safe for concurrent use; it holds no
// per-request state.
type Service struct {
	AI             ai.Client
	Reports        reports.Repository
	Incidents      incidents.Repository
	Clock          application.Clock
	Logger         *slog.Logger
	Timeout        time.Duration
	MaxSuggestions int
}

// FullAnalysisCommand is the input of RunFullAnalysis. Fallback opts into the
// keyword heuristic when the model path fails.
type FullAnalysisCommand struct {
	Text     string
	Language string
	Fallback bool
}

// AnalysisResponse is the combined full-analysis result.
type AnalysisResponse struct {
	ID        string                      `json:"id"`
	Language  string                      `json:"language"`
	Source    clauses.Source              `json:"source"`
	Clauses   []clauses.ClauseRecord      `json:"clauses"`
	Summary   clauses.ContractRiskSummary `json:"summary"`
	CreatedAt time.Time                   `json:"created_at"`
}

//
// ==== USE CASES ====
//

// RunFullAnalysis extracts and scores clauses. Model failures return
// ErrUpstream unless cmd.Fallback is set.
func (s *Service) RunFullAnalysis(ctx context.Context, cmd FullAnalysisCommand) (AnalysisResponse, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return AnalysisResponse{}, fmt.Errorf("%w: no text provided", ErrInvalidInput)
	}
	language := cmd.Language
	if language == "" {
		language = "English"
	}

	source := clauses.SourceModel
	records, phase, err := s.extract(ctx, text, language)
	if err != nil {
		s.incident(ctx, "analyze", phase, err, cmd.Fallback, nil)
		if !cmd.Fallback {
			return AnalysisResponse{}, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		s.log().Warn("full analysis fell back to heuristic", "phase", phase, "error", err)
		records = clauses.LocalClauses(text)
		source = clauses.SourceHeuristic
	}

	resp := AnalysisResponse{
		ID:        uuid.New().String(),
		Language:  language,
		Source:    source,
		Clauses:   records,
		Summary:   clauses.Aggregate(records),
		CreatedAt: s.now(),
	}
	s.saveReport(ctx, resp)
	return resp, nil
}

func (s *Service) extract(ctx context.Context, text, language string) ([]clauses.ClauseRecord, incidents.Phase, error) {
	raw, err := s.generate(ctx, prompt.ClauseExtraction(text, language), true)
	if err != nil {
		return nil, incidents.PhaseGenerate, err
	}
	records, err := clauses.NormalizeClauses(raw)
	if err != nil {
		return nil, incidents.PhaseNormalize, err
	}
	return records, "", nil
}

// RunDocumentAnalysis reviews blocks. It never fails: any model problem
// yields the local heuristic, and the result is always length-repaired.
func (s *Service) RunDocumentAnalysis(ctx context.Context, blocks []string) clauses.DocumentAnalysisResult {
	limit := s.maxSuggestions()

	res, err := s.reviewWithModel(ctx, blocks, limit)
	if err != nil {
		s.log().Warn("document analysis fell back to heuristic", "blocks", len(blocks), "error", err)
		phase := incidents.PhaseNormalize
		if !errors.Is(err, clauses.ErrUnparsableOutput) {
			phase = incidents.PhaseGenerate
		}
		s.incident(ctx, "analyze-document", phase, err, true, map[string]any{"blocks": len(blocks)})
		res = clauses.AnalyzeLocally(blocks)
	}

	if err := clauses.CheckShape(res, len(blocks)); err != nil {
		s.log().Warn("repairing document analysis", "error", err)
		s.incident(ctx, "analyze-document", incidents.PhaseRepair, err, true, nil)
	}
	return clauses.RepairDocument(res, len(blocks), limit)
}

func (s *Service) reviewWithModel(ctx context.Context, blocks []string, limit int) (clauses.DocumentAnalysisResult, error) {
	raw, err := s.generate(ctx, prompt.DocumentReview(blocks, limit), true)
	if err != nil {
		return clauses.DocumentAnalysisResult{}, err
	}
	return clauses.ParseDocument(raw)
}

// GenerateDraft returns two alternative clauses. No local fallback exists.
func (s *Service) GenerateDraft(ctx context.Context, request string) (clauses.DraftOptions, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return clauses.DraftOptions{}, fmt.Errorf("%w: no prompt provided", ErrInvalidInput)
	}
	raw, err := s.generate(ctx, prompt.DraftClause(request), true)
	if err != nil {
		s.incident(ctx, "generate-clause", incidents.PhaseGenerate, err, false, nil)
		return clauses.DraftOptions{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	opts, err := clauses.NormalizeDraftOptions(raw)
	if err != nil {
		s.incident(ctx, "generate-clause", incidents.PhaseNormalize, err, false, nil)
		return clauses.DraftOptions{}, err
	}
	return opts, nil
}

// ImproveClause returns a rewritten clause.
func (s *Service) ImproveClause(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text provided", ErrInvalidInput)
	}
	raw, err := s.generate(ctx, prompt.ImproveClause(text), true)
	if err != nil {
		s.incident(ctx, "improve-clause", incidents.PhaseGenerate, err, false, nil)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return clauses.NormalizeImprovement(raw)
}

// ListReports returns stored reports, newest first.
func (s *Service) ListReports(ctx context.Context, page, pageSize int) ([]*reports.Report, error) {
	if s.Reports == nil {
		return []*reports.Report{}, nil
	}
	return s.Reports.Paginate(ctx, page, pageSize)
}

// GetReport returns one stored report or reports.ErrNotFound.
func (s *Service) GetReport(ctx context.Context, id string) (*reports.Report, error) {
	if s.Reports == nil {
		return nil, reports.ErrNotFound
	}
	return s.Reports.Get(ctx, reports.ReportID(id))
}

// RecentIncidents returns the latest recorded model failures.
func (s *Service) RecentIncidents(ctx context.Context, limit int) ([]*incidents.Incident, error) {
	if s.Incidents == nil {
		return []*incidents.Incident{}, nil
	}
	return s.Incidents.Recent(ctx, limit)
}

// helper

func (s *Service) generate(ctx context.Context, p string, expectJSON bool) (string, error) {
	if s.AI == nil {
		return "", fmt.Errorf("%w: no model configured", ai.ErrProvider)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.now()
	raw, err := s.AI.Generate(ctx, p, expectJSON)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ai.ErrTimeout) {
		err = fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	}
	s.log().Debug("model call", "duration_ms", s.now().Sub(start).Milliseconds(), "ok", err == nil)
	return raw, err
}

func (s *Service) saveReport(ctx context.Context, resp AnalysisResponse) {
	if s.Reports == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		s.log().Error("marshal report", "error", err)
		return
	}
	r := &reports.Report{
		ID:                reports.ReportID(resp.ID),
		Language:          resp.Language,
		Source:            string(resp.Source),
		ClauseCount:       len(resp.Clauses),
		ContractRiskScore: resp.Summary.ContractRiskScore,
		CompositeScore:    resp.Summary.CompositeScore,
		Result:            string(b),
		CreatedAt:         resp.CreatedAt,
	}
	// report storage is best effort, the client already has the result
	if err := s.Reports.Save(ctx, r); err != nil {
		s.log().Error("save report", "id", r.ID, "error", err)
	}
}

func (s *Service) incident(ctx context.Context, endpoint string, phase incidents.Phase, cause error, recovered bool, details map[string]any) {
	if s.Incidents == nil {
		return
	}
	in := &incidents.Incident{
		Endpoint:  endpoint,
		Phase:     phase,
		Message:   cause.Error(),
		Recovered: recovered,
		CreatedAt: s.now(),
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			in.DetailsJSON = string(b)
		}
	}
	if err := s.Incidents.Save(ctx, in); err != nil {
		s.log().Error("save incident", "endpoint", endpoint, "error", err)
	}
}

func (s *Service) maxSuggestions() int {
	if s.MaxSuggestions <= 0 {
		return clauses.DefaultMaxSuggestions
	}
	return s.MaxSuggestions
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
