package chi

import (
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/usecase/ingest"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeExtractionFailed       ErrorCode = "extraction_failed"
	ErrorCodeEmptyContent           ErrorCode = "empty_content"
	ErrorCodeConfigurationError     ErrorCode = "configuration_error"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeVectorIndexError       ErrorCode = "vector_index_error"
	ErrorCodeGenerationUnavailable  ErrorCode = "generation_unconfigured"
	ErrorCodeGenerationFailed       ErrorCode = "generation_failed"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// QARequest is the body of POST /api/qa.
type QARequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// Source is one citation.
type Source struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Excerpt    string  `json:"excerpt"`
}

// SearchResponse lists matches in index order.
type SearchResponse struct {
	Results []Source `json:"results"`
}

// QAResponse is a grounded answer. Outcome is "grounded" or "no_evidence".
type QAResponse struct {
	Answer  string   `json:"answer"`
	Outcome string   `json:"outcome"`
	Sources []Source `json:"sources"`
}

// AskResponse is a persona answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// RewriteResponse carries the rewritten document text.
type RewriteResponse struct {
	Text string `json:"text"`
}

// IngestResponse summarizes an ingested upload.
type IngestResponse struct {
	DocID           string `json:"doc_id"`
	Filename        string `json:"filename"`
	ChunkCount      int    `json:"chunk_count"`
	VectorsUpserted int    `json:"vectors_upserted"`
	Superseded      int    `json:"superseded,omitempty"`
}

// StatsResponse reports index contents.
type StatsResponse struct {
	Records int `json:"records"`
}

// HealthResponse aggregates dependency checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func sourcesToDTO(cc []record.Citation) []Source {
	out := make([]Source, len(cc))
	for i, c := range cc {
		out[i] = Source{
			ID:         c.ID,
			Score:      c.Score,
			Source:     c.Source,
			ChunkIndex: c.ChunkIndex,
			Excerpt:    c.Excerpt,
		}
	}
	return out
}

func answerToDTO(a answer.Answer) QAResponse {
	return QAResponse{Answer: a.Text, Outcome: string(a.Outcome), Sources: sourcesToDTO(a.Sources)}
}

func ingestToDTO(r ingest.Result) IngestResponse {
	return IngestResponse{
		DocID:           r.DocumentID,
		Filename:        r.Filename,
		ChunkCount:      r.ChunkCount,
		VectorsUpserted: r.VectorsUpserted,
		Superseded:      r.Superseded,
	}
}
