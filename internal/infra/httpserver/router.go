package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/juriscope/internal/application/analysis"
	appuploads "github.com/bryanwahyu/juriscope/internal/application/uploads"
	"github.com/bryanwahyu/juriscope/internal/domain/ai"
	"github.com/bryanwahyu/juriscope/internal/domain/clauses"
	"github.com/bryanwahyu/juriscope/internal/domain/reports"
	"github.com/bryanwahyu/juriscope/internal/domain/uploads"
	"github.com/bryanwahyu/juriscope/internal/middleware"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 2 << 20

// Options configures the outer HTTP surface. Zero values disable the
// corresponding middleware.
type Options struct {
	CORSOrigins  []string
	RateCapacity int
	RateRefill   int
	OperatorKeys map[string]string
	Checkers     map[string]middleware.HealthChecker
	Logger       *slog.Logger
}

type Router struct {
	analysis *appanalysis.Service
	uploads  *appuploads.Service
	logger   *slog.Logger
}

func NewRouter(analysisSvc *appanalysis.Service, uploadsSvc *appuploads.Service, opt Options) http.Handler {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{analysis: analysisSvc, uploads: uploadsSvc, logger: logger}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(logger))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	if len(opt.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opt.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if opt.RateCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opt.RateCapacity, opt.RateRefill))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opt.Checkers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/analyze", r.wrap(r.handleAnalyze))
	mux.Post("/analyze-document", r.wrap(r.handleAnalyzeDocument))
	mux.Post("/generate-clause", r.wrap(r.handleGenerateClause))
	mux.Post("/improve-clause", r.wrap(r.handleImproveClause))

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/upload", r.wrap(r.handleUpload))
		rt.Group(func(op chi.Router) {
			op.Use(middleware.OperatorAuth(opt.OperatorKeys))
			op.Get("/reports", r.wrap(r.handleReportList))
			op.Get("/reports/{id}", r.wrap(r.handleReportGet))
			op.Get("/incidents", r.wrap(r.handleIncidents))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks request decoding and validation failures.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func invalid(format string, args ...any) error {
	return badRequest{fmt.Errorf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var br badRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &br), errors.Is(err, appanalysis.ErrInvalidInput), errors.Is(err, uploads.ErrEmptyFile):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		case errors.As(err, &tooLarge), errors.Is(err, uploads.ErrTooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "file too large"})
		case errors.Is(err, uploads.ErrUnsupportedType):
			writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: err.Error()})
		case errors.Is(err, uploads.ErrNoStorage):
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		case errors.Is(err, reports.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		case errors.Is(err, ai.ErrQuotaExceeded):
			middleware.IncrementLLMFailures()
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "ai quota exceeded", Source: "llm"})
		case errors.Is(err, appanalysis.ErrUpstream):
			middleware.IncrementLLMFailures()
			writeJSON(w, http.StatusBadGateway, errorBody{Error: "llm analysis failed", Source: "llm"})
		case errors.Is(err, clauses.ErrEmptyResult), errors.Is(err, clauses.ErrUnparsableOutput):
			middleware.IncrementLLMFailures()
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Source: "llm"})
		default:
			r.logger.Error("request failed", "path", req.URL.Path, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		}
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Source string `json:"source,omitempty"`
}

// POST /analyze
// Body: {"text": "...", "language": "English", "fallback": false}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text     string `json:"text"`
		Language string `json:"language"`
		Fallback bool   `json:"fallback"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	text, err := middleware.ValidateText(body.Text, middleware.MaxTextChars)
	if err != nil {
		return badRequest{err}
	}
	lang, err := middleware.ValidateLanguage(body.Language)
	if err != nil {
		return badRequest{err}
	}

	resp, err := r.analysis.RunFullAnalysis(req.Context(), appanalysis.FullAnalysisCommand{
		Text:     text,
		Language: lang,
		Fallback: body.Fallback,
	})
	if err != nil {
		return err
	}
	countAnalysis(resp.Source)
	return writeJSON(w, http.StatusOK, resp)
}

// POST /analyze-document
// Body: {"blocks": ["...", "..."]} or {"text": "..."} split one block per line
func (r *Router) handleAnalyzeDocument(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Blocks []string `json:"blocks"`
		Text   string   `json:"text"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	blocks := body.Blocks
	if len(blocks) == 0 && body.Text != "" {
		blocks = clauses.SplitBlocks(body.Text)
	}
	blocks, err := middleware.ValidateBlocks(blocks)
	if err != nil {
		return badRequest{err}
	}

	res := r.analysis.RunDocumentAnalysis(req.Context(), blocks)
	countAnalysis(res.Source)
	return writeJSON(w, http.StatusOK, res)
}

// POST /generate-clause
// Body: {"prompt": "..."}
func (r *Router) handleGenerateClause(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	prompt, err := middleware.ValidateText(body.Prompt, middleware.MaxPromptChars)
	if err != nil {
		return badRequest{err}
	}
	opts, err := r.analysis.GenerateDraft(req.Context(), prompt)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, opts)
}

// POST /improve-clause
// Body: {"text": "..."}
func (r *Router) handleImproveClause(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	text, err := middleware.ValidateText(body.Text, middleware.MaxPromptChars)
	if err != nil {
		return badRequest{err}
	}
	improved, err := r.analysis.ImproveClause(req.Context(), text)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"improved_text": improved})
}

// POST /api/upload (multipart, field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if r.uploads == nil {
		return uploads.ErrNoStorage
	}
	req.Body = http.MaxBytesReader(w, req.Body, uploads.MaxSize+1<<20)
	if err := req.ParseMultipartForm(uploads.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return invalid("invalid multipart form: %v", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return invalid("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploads.MaxSize+1))
	if err != nil {
		return invalid("read file: %v", err)
	}

	up, err := r.uploads.Accept(req.Context(), header.Filename, data)
	if err != nil {
		return err
	}
	middleware.IncrementUploads()
	return writeJSON(w, http.StatusCreated, up)
}

// GET /api/reports?page=&page_size=
func (r *Router) handleReportList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page = middleware.ValidatePage(page)
	size = middleware.ValidateLimit(size)

	list, err := r.analysis.ListReports(req.Context(), page, size)
	if err != nil {
		return err
	}
	items := make([]reportView, 0, len(list))
	for _, rep := range list {
		items = append(items, newReportView(rep, false))
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"page":      page,
		"page_size": size,
		"items":     items,
	})
}

// GET /api/reports/{id}
func (r *Router) handleReportGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest{err}
	}
	rep, err := r.analysis.GetReport(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, newReportView(rep, true))
}

// GET /api/incidents?limit=
func (r *Router) handleIncidents(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.analysis.RecentIncidents(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// reportView embeds the stored result as JSON instead of a quoted string.
type reportView struct {
	ID                string          `json:"id"`
	Language          string          `json:"language"`
	Source            string          `json:"source"`
	ClauseCount       int             `json:"clause_count"`
	ContractRiskScore float64         `json:"contract_risk_score"`
	CompositeScore    float64         `json:"composite_score"`
	Result            json.RawMessage `json:"result,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newReportView(rep *reports.Report, withResult bool) reportView {
	v := reportView{
		ID:                string(rep.ID),
		Language:          rep.Language,
		Source:            rep.Source,
		ClauseCount:       rep.ClauseCount,
		ContractRiskScore: rep.ContractRiskScore,
		CompositeScore:    rep.CompositeScore,
		CreatedAt:         rep.CreatedAt,
	}
	if withResult && json.Valid([]byte(rep.Result)) {
		v.Result = json.RawMessage(rep.Result)
	}
	return v
}

func countAnalysis(src clauses.Source) {
	middleware.IncrementAnalyses()
	if src == clauses.SourceHeuristic {
		middleware.IncrementFallbacks()
	}
}

func decode(w http.ResponseWriter, req *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return invalid("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
