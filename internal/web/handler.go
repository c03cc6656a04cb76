// Package web exposes the generation API over HTTP: one route per document
// type, mounted on the wails asset server. The routes share the generator
// descriptor table with the pipeline, so validation behavior and messages
// are identical on both paths.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"genspecs/internal/generation"
	"genspecs/internal/llm/client"
	"genspecs/internal/models"
)

// CompleterFactory builds a completion client for the API key carried in a
// request. A nil factory selects the default OpenRouter client.
type CompleterFactory func(ctx context.Context, apiKey string) (client.Completer, error)

// Handler serves POST /api/generate/{type}.
type Handler struct {
	mux          *http.ServeMux
	newCompleter CompleterFactory
	retry        client.RetryConfig
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(factory CompleterFactory) *Handler {
	if factory == nil {
		factory = func(ctx context.Context, apiKey string) (client.Completer, error) {
			return client.New(ctx, apiKey)
		}
	}
	h := &Handler{
		mux:          http.NewServeMux(),
		newCompleter: factory,
		retry:        client.DefaultRetryConfig(),
	}
	h.mux.HandleFunc("/api/generate/", h.handleGenerate)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	docType := models.DocumentType(strings.TrimPrefix(r.URL.Path, "/api/generate/"))
	desc, ok := generation.Lookup(docType)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown document type"})
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	input, err := decodeInput(desc, body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := generation.Validate(desc, input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx := r.Context()
	inner, err := h.newCompleter(ctx, input.APIKey)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	completer := client.WithRetry(inner, h.retry)

	content, err := generation.Generate(ctx, desc, input, completer)
	if err != nil {
		log.Printf("web: %s generation failed: %v", docType, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, models.DocumentState{
		Type:        docType,
		Content:     content,
		Status:      models.StatusAccepted,
		LastUpdated: &now,
	})
}

// decodeInput pulls the project details, the per-type dependency field and
// the API key out of the request body.
func decodeInput(desc generation.Descriptor, body map[string]json.RawMessage) (generation.Input, error) {
	var input generation.Input

	if raw, ok := body["projectDetails"]; ok {
		if err := json.Unmarshal(raw, &input.Details); err != nil {
			return input, errInvalidField("projectDetails")
		}
	}
	if raw, ok := body["apiKey"]; ok {
		if err := json.Unmarshal(raw, &input.APIKey); err != nil {
			return input, errInvalidField("apiKey")
		}
	}
	if desc.DependencyKey != "" {
		if raw, ok := body[desc.DependencyKey]; ok {
			var dep models.DocumentState
			if err := json.Unmarshal(raw, &dep); err != nil {
				return input, errInvalidField(desc.DependencyKey)
			}
			input.Dependency = &dep
		}
	}

	return input, nil
}

type fieldError string

func errInvalidField(name string) error { return fieldError(name) }

func (e fieldError) Error() string { return "invalid field: " + string(e) }

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("web: failed to encode response: %v", err)
	}
}
