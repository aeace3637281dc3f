package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, ErrorCodeExtractionFailed,
			"Could not read the document; please upload a valid .docx file."),
		sentinelHandler(domain.ErrEmptyContent, http.StatusUnprocessableEntity, ErrorCodeEmptyContent,
			"No content available for indexing."),
		sentinelHandler(domain.ErrGenerationUnconfigured, http.StatusServiceUnavailable, ErrorCodeGenerationUnavailable,
			"Text generation is not configured; please try again later."),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, ErrorCodeGenerationFailed,
			"Text generation failed; please retry."),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError,
			"Embedding provider error; please retry."),
		sentinelHandler(domain.ErrVectorIndex, http.StatusServiceUnavailable, ErrorCodeVectorIndexError,
			"Vector index unavailable; please retry."),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, ErrorCodeConfigurationError,
			"Service is misconfigured."),
	}
}

// validationHandler reports the reason of the validation error to the caller.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := domain.ErrValidation.Error()
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		msg = ve.Reason
	case errors.Is(err, domain.ErrSourceNotFound):
		msg = "Source document not found."
	case errors.Is(err, domain.ErrChunkOutOfRange):
		msg = "Chunk index out of range for source document."
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
