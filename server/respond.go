package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/leofalp/agentgraph/core/apperr"
)

type errorBody struct {
	Type            apperr.Kind `json:"type"`
	Title           string      `json:"title"`
	Message         string      `json:"message"`
	SuggestedAction string      `json:"suggestedAction,omitempty"`
	Retryable       bool        `json:"retryable"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func bodyFor(appErr *apperr.AppError) errorBody {
	return errorBody{
		Type:            appErr.Kind,
		Title:           apperr.Title(appErr.Kind),
		Message:         appErr.UserMessage,
		SuggestedAction: appErr.SuggestedAction,
		Retryable:       appErr.Retryable,
	}
}

// writeError logs the technical detail and answers with the user-facing
// part only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.Handle(err, nil)
	status := apperr.HTTPStatus(appErr.Kind)
	if errors.Is(err, errResourceNotFound) {
		status = http.StatusNotFound
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("kind", string(appErr.Kind)),
		slog.String("error", appErr.TechnicalMessage),
	)

	writeJSON(w, r, status, errorEnvelope{Error: bodyFor(appErr)})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "response encode failed", slog.String("error", err.Error()))
	}
}

// decode reads a JSON body into dst, rejecting unknown trailing data.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.New(apperr.KindInvalidInput, fmt.Sprintf("decode request body: %v", err),
			apperr.WithCause(err),
			apperr.WithUserMessage("O corpo da requisição não é um JSON válido."),
			apperr.WithSuggestedAction("Verifique o formato dos dados enviados."),
		)
	}
	if dec.More() {
		return apperr.New(apperr.KindInvalidInput, "request body has trailing data",
			apperr.WithUserMessage("O corpo da requisição contém dados extras."),
		)
	}
	return nil
}

var errResourceNotFound = errors.New("resource not found")

func errNotFound(what string) error {
	return apperr.New(apperr.KindInvalidInput, fmt.Sprintf("%s not found", what),
		apperr.WithCause(errResourceNotFound),
		apperr.WithUserMessage(fmt.Sprintf("Recurso não encontrado: %s.", what)),
	)
}
