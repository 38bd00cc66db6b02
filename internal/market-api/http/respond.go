package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-api/dto"
	"github.com/radieske/prediction-market-poc/internal/market-api/validation"
)

const msgInternal = "Internal server error"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Message: msg})
}

// writeInvalid responde 400 com as issues; qualquer outro erro vira 500
func (s *Server) writeInvalid(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "validation failed", Issues: verr.Issues})
		return
	}
	s.internal(w, r, err)
}

// internal loga o erro e responde 500 sem detalhes
func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFrom(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// decode lê o corpo JSON e roda as regras de validação de dst
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validation.New("body", "invalid_json", "malformed JSON body")
	}
	return validation.Struct(dst)
}

// pathID lê um id inteiro do path; id malformado é erro de validação
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, validation.New(name, "invalid_type", "must be an integer")
	}
	return id, nil
}
