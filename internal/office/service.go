package office

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"backoffice-service/internal/common/errors"
	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/documents"
	"backoffice-service/internal/notify"
	"backoffice-service/internal/records"
)

// Service implements the business operations. Record persistence and
// document generation succeed or fail independently of whether their
// associated notification succeeds.
type Service struct {
	store         *records.Store
	renderer      *documents.Renderer
	dispatcher    *notify.Dispatcher
	operatorEmail string
	logger        logger.Logger

	// now is injected so document layout stays a pure function in tests.
	now func() time.Time
}

func NewService(store *records.Store, renderer *documents.Renderer, dispatcher *notify.Dispatcher, operatorEmail string, log logger.Logger) *Service {
	return &Service{
		store:         store,
		renderer:      renderer,
		dispatcher:    dispatcher,
		operatorEmail: operatorEmail,
		logger:        log.WithFields(map[string]interface{}{"component": "office"}),
		now:           time.Now,
	}
}

// CreateContact persists the submission and notifies the operator address.
// The notification is fire-and-forget; its outcome never affects the result.
func (s *Service) CreateContact(ctx context.Context, input ContactInput) (*records.Record, error) {
	rec, err := s.store.Create(ctx, records.KindContact, map[string]interface{}{
		"name":    input.Name,
		"email":   input.Email,
		"phone":   input.Phone,
		"service": input.Service,
		"message": input.Message,
	})
	if err != nil {
		return nil, err
	}

	s.notifyOperator(ctx, notify.Message{
		Recipient: s.operatorEmail,
		Subject:   fmt.Sprintf("New contact from %s", input.Name),
		Body:      fmt.Sprintf("Service: %s\nPhone: %s\nMessage: %s", input.Service, input.Phone, input.Message),
	})

	return rec, nil
}

// ListContacts returns every readable contact record and the count of stored
// units that were skipped as unreadable.
func (s *Service) ListContacts(ctx context.Context) ([]records.Record, int, error) {
	return s.store.List(ctx, records.KindContact)
}

// SubmitAssessment persists the submission and notifies the operator.
func (s *Service) SubmitAssessment(ctx context.Context, input AssessmentInput) (*records.Record, error) {
	rec, err := s.store.Create(ctx, records.KindAssessment, map[string]interface{}{
		"name":    input.Name,
		"email":   input.Email,
		"service": input.Service,
		"answers": input.Answers,
	})
	if err != nil {
		return nil, err
	}

	answersJSON, err := json.MarshalIndent(input.Answers, "", "  ")
	if err != nil {
		answersJSON = []byte("{}")
	}
	s.notifyOperator(ctx, notify.Message{
		Recipient: s.operatorEmail,
		Subject:   fmt.Sprintf("Self-Assessment Submitted: %s", input.Name),
		Body: fmt.Sprintf("Customer: %s\nService: %s\nEmail: %s\n\nAnswers: %s",
			input.Name, input.Service, input.Email, answersJSON),
	})

	return rec, nil
}

// GenerateQuote lays out and renders a quote document.
func (s *Service) GenerateQuote(ctx context.Context, input DocumentInput) (*documents.GeneratedDocument, error) {
	return s.generateDocument(ctx, documents.KindQuote, input)
}

// GenerateInvoice lays out and renders an invoice document. The due date is
// the issue date plus thirty days.
func (s *Service) GenerateInvoice(ctx context.Context, input DocumentInput) (*documents.GeneratedDocument, error) {
	return s.generateDocument(ctx, documents.KindInvoice, input)
}

func (s *Service) generateDocument(ctx context.Context, kind documents.Kind, input DocumentInput) (*documents.GeneratedDocument, error) {
	req := documents.Request{
		Kind:         kind,
		CustomerName: input.CustomerName,
		Items:        input.Items,
		Total:        input.Total,
	}
	if err := req.Validate(); err != nil {
		return nil, errors.NewRenderFailedError(err.Error())
	}

	instructions := documents.Layout(req, s.now())
	return s.renderer.Render(ctx, instructions, kind)
}

// OpenDocument returns the stored document file for a download stream. The
// caller closes the file.
func (s *Service) OpenDocument(ctx context.Context, kind documents.Kind, filename string) (*os.File, error) {
	return s.renderer.Open(ctx, kind, filename)
}

// EmailDocument attaches a stored document and enqueues the send. A missing
// document surfaces to the caller before anything is dispatched; a transport
// failure after enqueue does not. The returned channel carries the
// completion signal for callers that choose to await it.
func (s *Service) EmailDocument(ctx context.Context, input EmailDocumentInput) (<-chan notify.Result, error) {
	path, err := s.resolveDocument(input.Filename)
	if err != nil {
		return nil, err
	}

	return s.dispatcher.Dispatch(ctx, notify.Message{
		Recipient:      input.RecipientEmail,
		Subject:        input.Subject,
		Body:           "Please see attached document",
		AttachmentPath: path,
	})
}

// resolveDocument looks the filename up in both document namespaces, since
// the operation identifies documents by filename alone.
func (s *Service) resolveDocument(filename string) (string, error) {
	for _, kind := range []documents.Kind{documents.KindQuote, documents.KindInvoice} {
		path, err := s.renderer.Resolve(kind, filename)
		if err == nil {
			return path, nil
		}
		if !errors.IsNotFound(err) {
			return "", err
		}
	}
	return "", errors.NewDocumentNotFoundError(filename)
}

// notifyOperator enqueues a best-effort operator notification. Failures are
// logged, never returned.
func (s *Service) notifyOperator(ctx context.Context, msg notify.Message) {
	if _, err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		s.logger.Warn("operator notification not dispatched", map[string]interface{}{
			"subject": msg.Subject,
			"error":   err.Error(),
		})
	}
}
