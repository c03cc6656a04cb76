package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"genspecs/internal/llm/client"
	"genspecs/internal/models"
)

type stubCompleter struct {
	calls   int
	content string
	err     error
}

func (c *stubCompleter) Complete(context.Context, string, string) (string, error) {
	c.calls++
	return c.content, c.err
}

func newTestHandler(completer *stubCompleter) *Handler {
	return NewHandler(func(context.Context, string) (client.Completer, error) {
		return completer, nil
	})
}

func postGenerate(h *Handler, docType string, body map[string]any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/generate/"+docType, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error
}

func validBody() map[string]any {
	return map[string]any{
		"apiKey": "sk-test",
		"projectDetails": map[string]any{
			"name":        "GenSpecs",
			"description": "Generates project documents",
			"userStories": []string{"As a user I want docs"},
		},
	}
}

func TestHandler_UnknownDocumentType(t *testing.T) {
	rec := postGenerate(newTestHandler(&stubCompleter{}), "summary", validBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown document type", decodeError(t, rec))
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/generate/readme", nil)
	rec := httptest.NewRecorder()
	newTestHandler(&stubCompleter{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_InvalidJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/generate/readme", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	newTestHandler(&stubCompleter{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rec))
}

func TestHandler_MissingAPIKey(t *testing.T) {
	completer := &stubCompleter{content: "doc"}
	body := validBody()
	delete(body, "apiKey")

	rec := postGenerate(newTestHandler(completer), "readme", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "API key is required", decodeError(t, rec))
	assert.Zero(t, completer.calls)
}

func TestHandler_MissingDependencyState(t *testing.T) {
	completer := &stubCompleter{content: "doc"}

	rec := postGenerate(newTestHandler(completer), "bom", validBody())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t,
		"Cannot generate BOM: README generation has not completed successfully",
		decodeError(t, rec))
	assert.Zero(t, completer.calls)
}

func TestHandler_GenerateReadmeSuccess(t *testing.T) {
	completer := &stubCompleter{content: "# GenSpecs readme"}

	rec := postGenerate(newTestHandler(completer), "readme", validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc models.DocumentState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, models.DocumentReadme, doc.Type)
	assert.Equal(t, models.StatusAccepted, doc.Status)
	assert.Equal(t, "# GenSpecs readme", doc.Content)
	assert.NotNil(t, doc.LastUpdated)
	assert.Equal(t, 1, completer.calls)
}

func TestHandler_GenerateBOMWithAcceptedReadme(t *testing.T) {
	completer := &stubCompleter{content: "## components"}
	body := validBody()
	body["readmeState"] = map[string]any{
		"type":    "readme",
		"content": "# readme",
		"status":  "accepted",
	}

	rec := postGenerate(newTestHandler(completer), "bom", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	var doc models.DocumentState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, models.DocumentBOM, doc.Type)
	assert.Equal(t, "## components", doc.Content)
}

func TestHandler_CompletionFailure(t *testing.T) {
	completer := &stubCompleter{err: &client.ProviderError{StatusCode: 429}}

	rec := postGenerate(newTestHandler(completer), "readme", validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", decodeError(t, rec))
}

func TestHandler_FactoryFailure(t *testing.T) {
	h := NewHandler(func(context.Context, string) (client.Completer, error) {
		return nil, errors.New("client construction failed")
	})

	rec := postGenerate(h, "readme", validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "client construction failed", decodeError(t, rec))
}
