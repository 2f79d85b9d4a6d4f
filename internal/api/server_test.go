package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/documents"
	"backoffice-service/internal/notify"
	"backoffice-service/internal/office"
	"backoffice-service/internal/records"
)

// ==========================
// Test Fixtures
// ==========================

type recordingTransport struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *office.Service) {
	t.Helper()
	log := logger.NewNoOpLogger()

	store, err := records.NewStore(t.TempDir(), log)
	require.NoError(t, err)

	renderer, err := documents.NewRenderer(t.TempDir(), log)
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(&recordingTransport{}, notify.DispatcherOptions{}, log)
	t.Cleanup(dispatcher.Close)

	svc := office.NewService(store, renderer, dispatcher, "operator@example.com", log)
	ts := httptest.NewServer(NewServer(svc, log).Router())
	t.Cleanup(ts.Close)

	return ts, svc
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const validDocumentBody = `{
	"customerName": "Jane Smith",
	"items": [
		{"description": "Consulting", "price": 150},
		{"description": "Installation", "price": 99.5}
	],
	"total": 249.5
}`

// ==========================
// Diagnostics
// ==========================

func TestTestEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/test")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Backend is running!", body["message"])
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

// ==========================
// Contacts
// ==========================

func TestCreateAndListContacts(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/contacts", `{
		"name": "Jane Smith",
		"email": "jane@example.com",
		"phone": "555-0100",
		"service": "plumbing",
		"message": "Leaking faucet"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	created := decodeBody(t, resp)
	assert.Equal(t, true, created["success"])
	contact, ok := created["contact"].(map[string]interface{})
	require.True(t, ok)
	assert.NotZero(t, contact["id"])

	listResp, err := http.Get(ts.URL + "/api/contacts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Equal(t, "0", listResp.Header.Get("X-Skipped-Records"))

	defer listResp.Body.Close()
	var listed []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	fields, ok := listed[0]["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", fields["name"])
}

func TestCreateContact_ValidationFailures(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"name": `},
		{name: "missing name", body: `{"email": "jane@example.com"}`},
		{name: "missing email", body: `{"name": "Jane Smith"}`},
		{name: "invalid email", body: `{"name": "Jane Smith", "email": "not-an-email"}`},
		{name: "unknown field", body: `{"name": "Jane Smith", "email": "jane@example.com", "admin": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/contacts", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "VALIDATION_FAILED", body["code"])
		})
	}

	listResp, err := http.Get(ts.URL + "/api/contacts")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var listed []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	assert.Empty(t, listed, "rejected submissions must not be persisted")
}

// ==========================
// Assessments
// ==========================

func TestSubmitAssessment(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/assessment", `{
		"name": "Jane Smith",
		"email": "jane@example.com",
		"service": "hvac",
		"answers": {"propertyAge": "15 years"}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assessment, ok := body["assessment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "assessment", assessment["kind"])
}

func TestSubmitAssessment_AnswersRequired(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/assessment", `{"name": "Jane Smith", "email": "jane@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

// ==========================
// Documents
// ==========================

func TestGenerateAndDownloadDocuments(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, kind := range []string{"quotes", "invoices"} {
		t.Run(kind, func(t *testing.T) {
			resp := postJSON(t, fmt.Sprintf("%s/api/%s/generate", ts.URL, kind), validDocumentBody)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, true, body["success"])
			filename, ok := body["filename"].(string)
			require.True(t, ok)
			assert.True(t, strings.HasSuffix(filename, ".pdf"))

			docType := strings.TrimSuffix(kind, "s")
			dl, err := http.Get(fmt.Sprintf("%s/api/download/%s/%s", ts.URL, docType, filename))
			require.NoError(t, err)
			defer dl.Body.Close()
			assert.Equal(t, http.StatusOK, dl.StatusCode)
			assert.Equal(t, "application/pdf", dl.Header.Get("Content-Type"))
			assert.Contains(t, dl.Header.Get("Content-Disposition"), filename)

			pdf := make([]byte, 5)
			_, err = dl.Body.Read(pdf)
			require.NoError(t, err)
			assert.Equal(t, "%PDF-", string(pdf))
		})
	}
}

func TestGenerateQuote_ValidationFailures(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing customer name", body: `{"items": [], "total": 0}`},
		{name: "missing total", body: `{"customerName": "Jane", "items": []}`},
		{name: "item without description", body: `{"customerName": "Jane", "items": [{"price": 10}], "total": 10}`},
		{name: "string price", body: `{"customerName": "Jane", "items": [{"description": "x", "price": "10"}], "total": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/quotes/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "VALIDATION_FAILED", body["code"])
		})
	}
}

func TestDownload_UnknownFilename(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/download/quote/quote-0.pdf")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", body["code"])
}

func TestDownload_UnknownKind(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/download/receipt/quote-0.pdf")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

// ==========================
// Email Document
// ==========================

func TestEmailDocument(t *testing.T) {
	ts, _ := newTestServer(t)

	genResp := postJSON(t, ts.URL+"/api/quotes/generate", validDocumentBody)
	require.Equal(t, http.StatusOK, genResp.StatusCode)
	filename := decodeBody(t, genResp)["filename"].(string)

	resp := postJSON(t, ts.URL+"/api/email-document", fmt.Sprintf(`{
		"recipientEmail": "jane@example.com",
		"subject": "Your quote",
		"filename": %q
	}`, filename))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Email queued", body["message"])
}

func TestEmailDocument_UnknownFilename(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/email-document", `{
		"recipientEmail": "jane@example.com",
		"subject": "Your quote",
		"filename": "quote-0.pdf"
	}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", body["code"])
}

func TestEmailDocument_InvalidRecipient(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/email-document", `{
		"recipientEmail": "not-an-email",
		"subject": "Your quote",
		"filename": "quote-0.pdf"
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

// ==========================
// Metrics
// ==========================

func TestMetricsEndpointExposed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
