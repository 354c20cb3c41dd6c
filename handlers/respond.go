// Package handlers is the HTTP edge: it decodes and validates input, calls the
// services with the caller id from the auth middleware and writes the JSON
// envelopes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mini-planner/apperr"
)

// envelope is merged into the top level of a success body next to "message".
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, message string, payload envelope) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["message"] = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// writeError answers with the status of err's kind. Errors without a kind are
// logged and reported as a bare Internal error.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.Internal {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err),
		)
		e = apperr.New(apperr.Internal)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(e.Kind))
	_ = json.NewEncoder(w).Encode(map[string]errorBody{
		"error": {Kind: e.Kind.String(), Message: e.Message, Fields: e.Fields},
	})
}
