// Package api is the thin HTTP edge: it parses and validates requests,
// invokes office operations, and serializes their results and errors.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"

	"backoffice-service/internal/common/errors"
	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/common/metrics"
	"backoffice-service/internal/documents"
	"backoffice-service/internal/office"
)

type Server struct {
	svc    *office.Service
	logger logger.Logger
}

func NewServer(svc *office.Service, log logger.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/api/test", s.handleTest)
	r.Get("/api/health", s.handleHealth)

	r.Get("/api/contacts", s.handleListContacts)
	r.Post("/api/contacts", s.handleCreateContact)

	r.Post("/api/quotes/generate", s.handleGenerateQuote)
	r.Post("/api/invoices/generate", s.handleGenerateInvoice)
	r.Get("/api/download/{type}/{filename}", s.handleDownload)
	r.Post("/api/email-document", s.handleEmailDocument)

	r.Post("/api/assessment", s.handleSubmitAssessment)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// instrument records per-route request durations.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Backend is running!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	recs, skipped, err := s.svc.ListContacts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Partial-failure indicator: unreadable units are skipped, not fatal.
	w.Header().Set("X-Skipped-Records", strconv.Itoa(skipped))
	s.writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var input office.ContactInput
	if err := s.decode(r, contactSchema, &input); err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.svc.CreateContact(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "contact": rec})
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var input office.AssessmentInput
	if err := s.decode(r, assessmentSchema, &input); err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.svc.SubmitAssessment(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "assessment": rec})
}

func (s *Server) handleGenerateQuote(w http.ResponseWriter, r *http.Request) {
	s.handleGenerateDocument(w, r, s.svc.GenerateQuote)
}

func (s *Server) handleGenerateInvoice(w http.ResponseWriter, r *http.Request) {
	s.handleGenerateDocument(w, r, s.svc.GenerateInvoice)
}

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request, generate func(context.Context, office.DocumentInput) (*documents.GeneratedDocument, error)) {
	var input office.DocumentInput
	if err := s.decode(r, documentSchema, &input); err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := generate(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "filename": doc.Filename})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	kind := documents.Kind(chi.URLParam(r, "type"))
	filename := chi.URLParam(r, "filename")

	f, err := s.svc.OpenDocument(r.Context(), kind, filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("download stream aborted", map[string]interface{}{
			"filename": filename,
			"error":    err.Error(),
		})
	}
}

func (s *Server) handleEmailDocument(w http.ResponseWriter, r *http.Request) {
	var input office.EmailDocumentInput
	if err := s.decode(r, emailDocumentSchema, &input); err != nil {
		s.writeError(w, err)
		return
	}

	// The send completes asynchronously; the ack covers the enqueue only.
	if _, err := s.svc.EmailDocument(r.Context(), input); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Email queued"})
}

// decode reads the body once, validates it against the operation schema, and
// unmarshals it into the typed input.
func (s *Server) decode(r *http.Request, schema *gojsonschema.Schema, out interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.NewValidationFailedError("unreadable request body")
	}
	if len(body) == 0 {
		return errors.NewValidationFailedError("empty request body")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.NewValidationFailedError("request body is not valid JSON")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.NewValidationFailedError(strings.Join(details, "; "))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewValidationFailedError(err.Error())
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)

	body := map[string]interface{}{"error": err.Error()}
	if code := errors.CodeOf(err); code != "" {
		body["code"] = string(code)
	}
	if status >= http.StatusInternalServerError {
		// Storage and render internals stay server-side.
		body["error"] = "Something went wrong!"
		s.logger.Error("request failed", map[string]interface{}{"error": err.Error()})
	}

	s.writeJSON(w, status, body)
}
