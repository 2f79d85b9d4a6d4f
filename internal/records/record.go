// Package records implements the append-only, file-per-record store for
// persisted domain entities.
package records

import "time"

// Kind names a record storage namespace.
type Kind string

const (
	KindContact    Kind = "contact"
	KindAssessment Kind = "assessment"
)

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	return k == KindContact || k == KindAssessment
}

// Record is a persisted, immutable domain entity. There are no update or
// delete operations; a record exists exactly as it was created.
type Record struct {
	ID        int64                  `json:"id"`
	Kind      Kind                   `json:"kind"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"createdAt"`
}
