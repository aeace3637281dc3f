// Package chi exposes the docrag services over HTTP with a chi router.
package chi

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/repository/filestore"
	healthuc "github.com/kailas-cloud/docrag/internal/usecase/health"
	"github.com/kailas-cloud/docrag/internal/usecase/ingest"
)

// multipartOverhead is allowed on top of the file size limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// Ingester ingests uploaded documents.
type Ingester interface {
	IngestUpload(ctx context.Context, u filestore.Upload) (ingest.Result, error)
}

// Retriever runs search and grounded Q&A.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]record.Citation, error)
	Answer(ctx context.Context, question string, topK int) (answer.Answer, error)
}

// Rewriter rewrites documents and answers general questions.
type Rewriter interface {
	RewriteFile(ctx context.Context, path string, goals []string, notes string) (string, error)
	Ask(ctx context.Context, question string) (string, error)
}

// TempUploads stores uploads that are processed and discarded.
type TempUploads interface {
	SaveTemp(u filestore.Upload) (path string, cleanup func(), err error)
}

// HealthChecker aggregates dependency checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// RecordCounter counts indexed records.
type RecordCounter interface {
	Count(ctx context.Context) (int, error)
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	Ingest         Ingester
	Retrieval      Retriever
	Rewrite        Rewriter
	Uploads        TempUploads
	Health         HealthChecker
	Index          RecordCounter
	MaxUploadBytes int64
	APIKeys        []string
	Logger         *zap.Logger
}

// Server serves the JSON API.
type Server struct {
	deps          Deps
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps) *Server {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = filestore.DefaultMaxBytes
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{deps: deps, errorHandlers: defaultErrorHandlers()}
}

// Router builds the chi router with the middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.deps.Logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.deps.Logger))
	r.Use(metrics.Middleware("/metrics", "/health"))
	r.Use(BearerAuthMiddleware(s.deps.APIKeys))

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.Stats)
		r.Post("/ingest", s.Ingest)
		r.Post("/search", s.Search)
		r.Post("/qa", s.QA)
		r.Post("/ask", s.Ask)
		r.Post("/rewrite", s.Rewrite)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Stats handles GET /api/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Index.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Records: n})
}

// Ingest handles POST /api/ingest (multipart field "file").
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	upload, closeFile, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer closeFile()

	res, err := s.deps.Ingest.IngestUpload(r.Context(), upload)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusCreated, ingestToDTO(res))
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := s.deps.Retrieval.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, SearchResponse{Results: sourcesToDTO(results)})
}

// QA handles POST /api/qa.
func (s *Server) QA(w http.ResponseWriter, r *http.Request) {
	var req QARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ans, err := s.deps.Retrieval.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, answerToDTO(ans))
}

// Ask handles POST /api/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text, err := s.deps.Rewrite.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, AskResponse{Answer: text})
}

// Rewrite handles POST /api/rewrite (multipart "file", optional "notes" and repeated "goals").
func (s *Server) Rewrite(w http.ResponseWriter, r *http.Request) {
	upload, closeFile, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer closeFile()

	path, cleanup, err := s.deps.Uploads.SaveTemp(upload)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	defer cleanup()

	text, err := s.deps.Rewrite.RewriteFile(r.Context(), path, r.MultipartForm.Value["goals"], r.FormValue("notes"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, RewriteResponse{Text: text})
}

// readUpload parses the multipart form and opens the "file" part.
// On failure it writes the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (filestore.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid multipart form; please upload a .docx file.")
		return filestore.Upload{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Missing file; please upload a .docx file.")
		return filestore.Upload{}, nil, false
	}

	closeFile := func() {
		_ = file.Close()
		_ = r.MultipartForm.RemoveAll()
	}
	return filestore.Upload{
		Filename:    header.Filename,
		ContentType: contentType(header),
		Body:        file,
	}, closeFile, true
}

func contentType(h *multipart.FileHeader) string {
	return h.Header.Get("Content-Type")
}

// decodeJSON reads the request body into v. On failure it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
