package chi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeInvalidInput     = "invalid_input"
	codeShapeMismatch    = "shape_mismatch"
	codeIndexOutOfRange  = "index_out_of_range"
	codeInvalidArgument  = "invalid_argument"
	codeEncodingFailed   = "encoding_failed"
	codeGenerationFailed = "generation_failed"
	codeTimeout          = "timeout"
	codeOverloaded       = "overloaded"
	codeCanceled         = "canceled"
	codeInternal         = "internal_error"
)

// statusClientClosedRequest is the de facto status for requests abandoned by the client.
const statusClientClosedRequest = 499

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// errorMapping binds a sentinel to its HTTP status and code. Order matters:
// a timeout wrapped by an encoder decorator is reported as a timeout.
type errorMapping struct {
	sentinel error
	status   int
	code     string
	// public errors expose the full message; others only the sentinel text.
	public bool
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput, true},
	{domain.ErrShapeMismatch, http.StatusBadRequest, codeShapeMismatch, true},
	{domain.ErrIndexOutOfRange, http.StatusBadRequest, codeIndexOutOfRange, true},
	{domain.ErrInvalidArgument, http.StatusBadRequest, codeInvalidArgument, true},
	{domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout, false},
	{domain.ErrOverloaded, http.StatusServiceUnavailable, codeOverloaded, false},
	{domain.ErrEncodingFailed, http.StatusBadGateway, codeEncodingFailed, false},
	{domain.ErrGenerationFailed, http.StatusBadGateway, codeGenerationFailed, false},
	{context.Canceled, statusClientClosedRequest, codeCanceled, false},
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if body.Code == codeInternal {
		s.requestLogger(r).Error("internal error", zap.Error(err))
	} else {
		s.requestLogger(r).Warn("domain error", zap.Error(err), zap.String("stage", body.Stage))
	}
	writeJSON(w, status, body)
}

// errorBody maps err to a status and response body. Validation errors carry
// the full message; backend errors expose only the sentinel text.
func errorBody(err error) (int, errorResponse) {
	stage, _ := domain.StageOf(err)
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			msg := m.sentinel.Error()
			if m.public {
				msg = err.Error()
			}
			return m.status, errorResponse{Code: m.code, Message: msg, Stage: string(stage)}
		}
	}
	return http.StatusInternalServerError, errorResponse{Code: codeInternal, Message: "internal error", Stage: string(stage)}
}

func writeError(w http.ResponseWriter, status int, code, message, stage string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message, Stage: stage})
}

// codeFor returns the error code for err without writing a response.
func codeFor(err error) string {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.code
		}
	}
	return codeInternal
}
