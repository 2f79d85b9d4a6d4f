// Package office binds the record store, layout engine, renderer, and
// dispatcher into the operations the HTTP edge exposes.
package office

import "backoffice-service/internal/documents"

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

type AssessmentInput struct {
	Name    string                 `json:"name"`
	Email   string                 `json:"email"`
	Service string                 `json:"service"`
	Answers map[string]interface{} `json:"answers"`
}

type DocumentInput struct {
	CustomerName string               `json:"customerName"`
	Items        []documents.LineItem `json:"items"`
	Total        float64              `json:"total"`
}

type EmailDocumentInput struct {
	RecipientEmail string `json:"recipientEmail"`
	Subject        string `json:"subject"`
	Filename       string `json:"filename"`
}
