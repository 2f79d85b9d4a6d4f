// Package documents turns customer line-item requests into positioned draw
// instructions and renders those instructions into persisted PDF files.
package documents

import (
	"fmt"
	"strconv"
	"time"
)

// Kind names a document namespace.
type Kind string

const (
	KindQuote   Kind = "quote"
	KindInvoice Kind = "invoice"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindQuote || k == KindInvoice
}

// LineItem is one priced entry within a document. Price sign and magnitude
// are caller-supplied and not constrained here.
type LineItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Request describes a quote or invoice to generate. Total is rendered
// verbatim and never recomputed from the items.
type Request struct {
	Kind         Kind       `json:"kind"`
	CustomerName string     `json:"customerName"`
	Items        []LineItem `json:"items"`
	Total        float64    `json:"total"`
}

// Validate checks the request shape before layout. Items with an empty
// description are the malformed-input case the renderer contract names.
func (r Request) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown document kind: %s", r.Kind)
	}
	if r.CustomerName == "" {
		return fmt.Errorf("customerName is required")
	}
	for i, item := range r.Items {
		if item.Description == "" {
			return fmt.Errorf("items[%d]: description is required", i)
		}
	}
	return nil
}

// Instruction is one positioned draw operation, either a TextAt or a
// LineSegment. Coordinates are PDF points with the origin at the top left.
type Instruction interface {
	isInstruction()
}

// TextAt draws content at (X, Y) using FontSize.
type TextAt struct {
	X        float64
	Y        float64
	Content  string
	FontSize float64
}

func (TextAt) isInstruction() {}

// LineSegment draws a stroked line from (X1, Y1) to (X2, Y2).
type LineSegment struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

func (LineSegment) isInstruction() {}

// Fixed layout coordinates. Invoices carry one extra header line (the due
// date), which pushes the rule and item block down by 20 points.
const (
	leftMargin  = 100
	rightMargin = 500

	titleY    = 100
	titleSize = 20

	customerY = 150
	bodySize  = 12

	issueDateY = 170
	dueDateY   = 190

	quoteRuleY   = 200
	invoiceRuleY = 220

	quoteItemsStartY   = 220
	invoiceItemsStartY = 240

	itemStep = 30

	totalSize = 14
)

// dueDateOffsetDays is the payment term applied to every invoice.
const dueDateOffsetDays = 30

// Layout converts a request into an ordered instruction sequence. It is a
// pure function of its arguments: the issue date is injected by the caller.
// An empty item list degrades to header, two rules, and a total line. Long
// item lists run past the nominal page boundary; there is no pagination.
func Layout(req Request, issueDate time.Time) []Instruction {
	headerRuleY := float64(quoteRuleY)
	itemsStartY := float64(quoteItemsStartY)
	title := "QUOTE"
	totalLabel := "TOTAL"
	if req.Kind == KindInvoice {
		headerRuleY = invoiceRuleY
		itemsStartY = invoiceItemsStartY
		title = "INVOICE"
		totalLabel = "TOTAL DUE"
	}

	out := []Instruction{
		TextAt{X: leftMargin, Y: titleY, Content: title, FontSize: titleSize},
		TextAt{X: leftMargin, Y: customerY, Content: fmt.Sprintf("Customer: %s", req.CustomerName), FontSize: bodySize},
	}

	if req.Kind == KindInvoice {
		dueDate := issueDate.AddDate(0, 0, dueDateOffsetDays)
		out = append(out,
			TextAt{X: leftMargin, Y: issueDateY, Content: fmt.Sprintf("Invoice Date: %s", formatDate(issueDate)), FontSize: bodySize},
			TextAt{X: leftMargin, Y: dueDateY, Content: fmt.Sprintf("Due Date: %s", formatDate(dueDate)), FontSize: bodySize},
		)
	} else {
		out = append(out,
			TextAt{X: leftMargin, Y: issueDateY, Content: fmt.Sprintf("Date: %s", formatDate(issueDate)), FontSize: bodySize},
		)
	}

	out = append(out, LineSegment{X1: leftMargin, Y1: headerRuleY, X2: rightMargin, Y2: headerRuleY})

	for i, item := range req.Items {
		y := itemsStartY + float64(i*itemStep)
		out = append(out, TextAt{
			X:        leftMargin,
			Y:        y,
			Content:  fmt.Sprintf("%s: $%s", item.Description, formatAmount(item.Price)),
			FontSize: bodySize,
		})
	}

	closingRuleY := itemsStartY + float64(len(req.Items)*itemStep) + 20
	totalY := itemsStartY + float64(len(req.Items)*itemStep) + 40

	out = append(out,
		LineSegment{X1: leftMargin, Y1: closingRuleY, X2: rightMargin, Y2: closingRuleY},
		TextAt{
			X:        leftMargin,
			Y:        totalY,
			Content:  fmt.Sprintf("%s: $%s", totalLabel, formatAmount(req.Total)),
			FontSize: totalSize,
		},
	)

	return out
}

// formatAmount prints prices the way callers supplied them, without padding
// to fixed decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format("1/2/2006")
}
