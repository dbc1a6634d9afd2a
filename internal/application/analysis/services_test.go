package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bryanwahyu/juriscope/internal/application"
	"github.com/bryanwahyu/juriscope/internal/domain/ai"
	"github.com/bryanwahyu/juriscope/internal/domain/ai/mocks"
	"github.com/bryanwahyu/juriscope/internal/domain/clauses"
	"github.com/bryanwahyu/juriscope/internal/domain/incidents"
	"github.com/bryanwahyu/juriscope/internal/domain/reports"
)

type memReports struct {
	mu    sync.Mutex
	saved []*reports.Report
	err   error
}

func (m *memReports) Save(_ context.Context, r *reports.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *memReports) Get(_ context.Context, id reports.ReportID) (*reports.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, reports.ErrNotFound
}

func (m *memReports) Paginate(_ context.Context, page, pageSize int) ([]*reports.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, nil
}

type memIncidents struct {
	mu    sync.Mutex
	saved []*incidents.Incident
}

func (m *memIncidents) Save(_ context.Context, i *incidents.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, i)
	return nil
}

func (m *memIncidents) Recent(_ context.Context, limit int) ([]*incidents.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, nil
}

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *mocks.MockClient, *memReports, *memIncidents) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	rep := &memReports{}
	inc := &memIncidents{}
	svc := &Service{
		AI:        client,
		Reports:   rep,
		Incidents: inc,
		Clock:     application.FixedClock{T: now},
	}
	return svc, client, rep, inc
}

const clauseJSON = `{"clauses": [
	{"text": "The Vendor shall indemnify the Client.", "clause_type": "Indemnification & Liability", "risk_level": "Unavoidable", "anomaly_score": 0.8},
	{"text": "Fees are due within 30 days.", "clause_type": "Consideration & Payment", "risk_level": "Low", "anomaly_score": 0.1}
]}`

func TestRunFullAnalysis_Success(t *testing.T) {
	svc, client, rep, inc := newService(t)
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(ctx context.Context, p string, _ bool) (string, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "model call must be bounded")
			assert.Contains(t, p, "Contract language: Hindi")
			assert.Contains(t, p, "Dispute Resolution & Jurisdiction")
			return clauseJSON, nil
		})

	resp, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "contract text", Language: "Hindi"})
	require.NoError(t, err)

	assert.Equal(t, clauses.SourceModel, resp.Source)
	require.Len(t, resp.Clauses, 2)
	assert.Equal(t, 0.91, resp.Summary.ContractRiskScore)
	assert.Equal(t, 0.09, resp.Summary.CompositeScore)
	assert.Equal(t, 0.45, resp.Summary.AvgAnomalyScore)
	assert.Equal(t, now, resp.CreatedAt)
	assert.NotEmpty(t, resp.ID)

	require.Len(t, rep.saved, 1)
	assert.Equal(t, reports.ReportID(resp.ID), rep.saved[0].ID)
	assert.Equal(t, 2, rep.saved[0].ClauseCount)
	assert.Contains(t, rep.saved[0].Result, `"contract_risk_score":0.91`)
	assert.Empty(t, inc.saved)
}

func TestRunFullAnalysis_NoClausesFound(t *testing.T) {
	svc, client, rep, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(`{"clauses": []}`, nil)

	resp, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "A short note."})
	require.NoError(t, err)

	assert.Equal(t, clauses.SourceModel, resp.Source)
	assert.NotNil(t, resp.Clauses)
	assert.Empty(t, resp.Clauses)
	assert.Equal(t, clauses.ContractRiskSummary{}, resp.Summary)
	require.Len(t, rep.saved, 1)
	assert.Equal(t, 0, rep.saved[0].ClauseCount)
	assert.Empty(t, inc.saved)
}

func TestRunFullAnalysis_DefaultLanguage(t *testing.T) {
	svc, client, _, _ := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(clauseJSON, nil)

	resp, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "contract text"})
	require.NoError(t, err)
	assert.Equal(t, "English", resp.Language)
}

func TestRunFullAnalysis_EmptyText(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunFullAnalysis_ProviderErrorSurfaces(t *testing.T) {
	svc, client, rep, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return("", ai.ErrTimeout)

	_, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "contract text"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, ai.ErrTimeout)
	assert.Empty(t, rep.saved)
	require.Len(t, inc.saved, 1)
	assert.Equal(t, incidents.PhaseGenerate, inc.saved[0].Phase)
	assert.False(t, inc.saved[0].Recovered)
}

func TestRunFullAnalysis_UnparsableSurfaces(t *testing.T) {
	svc, client, _, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return("not json at all", nil)

	_, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "contract text"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, clauses.ErrUnparsableOutput)
	require.Len(t, inc.saved, 1)
	assert.Equal(t, incidents.PhaseNormalize, inc.saved[0].Phase)
}

func TestRunFullAnalysis_OptInFallback(t *testing.T) {
	svc, client, rep, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return("", ai.ErrProvider)

	text := "1. The Client shall indemnify the Supplier against all claims.\n2. Either party may terminate this agreement on notice."
	resp, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: text, Fallback: true})
	require.NoError(t, err)

	assert.Equal(t, clauses.SourceHeuristic, resp.Source)
	require.Len(t, resp.Clauses, 2)
	assert.Equal(t, clauses.RiskHigh, resp.Clauses[0].RiskLevel)
	assert.Equal(t, 0.57, resp.Summary.ContractRiskScore)
	require.Len(t, rep.saved, 1)
	assert.Equal(t, "heuristic", rep.saved[0].Source)
	require.Len(t, inc.saved, 1)
	assert.True(t, inc.saved[0].Recovered)
}

func TestRunFullAnalysis_ReportSaveFailureIsNotFatal(t *testing.T) {
	svc, client, rep, _ := newService(t)
	rep.err = errors.New("db down")
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(clauseJSON, nil)

	_, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "contract text"})
	assert.NoError(t, err)
}

func TestRunFullAnalysis_TimeoutIsApplied(t *testing.T) {
	svc, client, _, _ := newService(t)
	svc.Timeout = 20 * time.Millisecond
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(ctx context.Context, _ string, _ bool) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	_, err := svc.RunFullAnalysis(context.Background(), FullAnalysisCommand{Text: "contract text"})
	assert.ErrorIs(t, err, ai.ErrTimeout)
}

func TestRunDocumentAnalysis_RepairsShortModelOutput(t *testing.T) {
	svc, client, _, inc := newService(t)
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), true).
		Return(`{"overall_analysis": "Balanced.", "block_analyses": ["Clause 1: Fine."], "suggestions": ["Add a cap"]}`, nil)

	got := svc.RunDocumentAnalysis(context.Background(), []string{"a", "b", "c"})

	assert.Equal(t, []string{"Clause 1: Fine.", "Clause 2: Review required.", "Clause 3: Review required."}, got.BlockAnalyses)
	assert.Equal(t, clauses.SourceModel, got.Source)
	require.Len(t, inc.saved, 1)
	assert.Equal(t, incidents.PhaseRepair, inc.saved[0].Phase)
}

func TestRunDocumentAnalysis_FallsBackOnProviderError(t *testing.T) {
	svc, client, _, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return("", ai.ErrQuotaExceeded)

	blocks := []string{"The supplier shall indemnify and may terminate.", "Plain text here."}
	got := svc.RunDocumentAnalysis(context.Background(), blocks)

	assert.Equal(t, clauses.AnalyzeLocally(blocks), got)
	require.Len(t, inc.saved, 1)
	assert.Equal(t, incidents.PhaseGenerate, inc.saved[0].Phase)
	assert.Equal(t, `{"blocks":2}`, inc.saved[0].DetailsJSON)
}

func TestRunDocumentAnalysis_FallsBackOnMissingBlocks(t *testing.T) {
	svc, client, _, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(`{"overall_analysis": "ok"}`, nil)

	got := svc.RunDocumentAnalysis(context.Background(), []string{"x"})

	assert.Equal(t, clauses.SourceHeuristic, got.Source)
	assert.Len(t, got.BlockAnalyses, 1)
	require.Len(t, inc.saved, 1)
	assert.Equal(t, incidents.PhaseNormalize, inc.saved[0].Phase)
}

func TestRunDocumentAnalysis_WithoutModel(t *testing.T) {
	svc := &Service{}
	got := svc.RunDocumentAnalysis(context.Background(), []string{"confidential terms"})
	assert.Equal(t, []string{"Clause 1: Confidentiality clause; check exceptions & duration."}, got.BlockAnalyses)
}

func TestRunDocumentAnalysis_SuggestionCap(t *testing.T) {
	svc, client, _, _ := newService(t)
	svc.MaxSuggestions = 2
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(_ context.Context, p string, _ bool) (string, error) {
			assert.True(t, strings.Contains(p, "at most 2"))
			return `{"block_analyses": ["a"], "suggestions": ["1", "2", "3"]}`, nil
		})

	got := svc.RunDocumentAnalysis(context.Background(), []string{"x"})
	assert.Equal(t, []string{"1", "2"}, got.Suggestions)
}

func TestGenerateDraft(t *testing.T) {
	svc, client, _, _ := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(`{"a": "Strict text", "b": {"title": "Middle", "text": "Fair text"}}`, nil)

	got, err := svc.GenerateDraft(context.Background(), "limitation of liability")
	require.NoError(t, err)
	assert.Equal(t, clauses.DraftOption{Title: clauses.DefaultTitleA, Text: "Strict text"}, got.OptionA)
	assert.Equal(t, clauses.DraftOption{Title: "Middle", Text: "Fair text"}, got.OptionB)
}

func TestGenerateDraft_EmptyResultSurfaces(t *testing.T) {
	svc, client, _, inc := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(`{"option_a": {"title": "x"}}`, nil)

	_, err := svc.GenerateDraft(context.Background(), "anything")
	assert.ErrorIs(t, err, clauses.ErrEmptyResult)
	require.Len(t, inc.saved, 1)
	assert.False(t, inc.saved[0].Recovered)
}

func TestGenerateDraft_ProviderError(t *testing.T) {
	svc, client, _, _ := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return("", ai.ErrProvider)

	_, err := svc.GenerateDraft(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = svc.GenerateDraft(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImproveClause(t *testing.T) {
	svc, client, _, _ := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any(), true).Return(`{"improved_text": "Clearer clause."}`, nil)

	got, err := svc.ImproveClause(context.Background(), "Unclear clause.")
	require.NoError(t, err)
	assert.Equal(t, "Clearer clause.", got)
}

func TestReportsAndIncidentsWithoutRepositories(t *testing.T) {
	svc := &Service{}

	list, err := svc.ListReports(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)

	r, err := svc.GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, reports.ErrNotFound)
	assert.Nil(t, r)

	incs, err := svc.RecentIncidents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, incs)
}
