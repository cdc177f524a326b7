// Package session owns the state of an in-progress statement import: the
// extracted raw table, the classifier's suggested mapping, and whatever
// mapping and convention the user is currently editing. The ingest core
// itself is stateless; this package is the explicit state owner it hands
// that job to.
package session

import (
	"context"
	"time"

	"github.com/dvloznov/statement-import/internal/ingest"
)

// ImportSession tracks one uploaded statement through the
// suggest/override/preview loop.
type ImportSession struct {
	// SessionID is the unique identifier for this import.
	SessionID string `json:"session_id"`

	// Filename is the original upload filename, for display only.
	Filename string `json:"filename"`

	// Table is the extracted raw data. Never mutated after creation.
	Table *ingest.RawTable `json:"-"`

	// SuggestedMapping is the classifier's suggestion, kept so the UI can
	// offer a reset.
	SuggestedMapping ingest.ColumnMapping `json:"suggested_mapping"`

	// Mapping is the active mapping, starting as the suggestion and
	// replaced wholesale on each override.
	Mapping ingest.ColumnMapping `json:"mapping"`

	// Convention is the active single-amount sign convention.
	Convention ingest.StatementConvention `json:"convention"`

	// CreatedAt is when the file was uploaded.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the mapping or convention last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Process runs the row processor with the session's current mapping and
// convention.
func (s *ImportSession) Process() []ingest.NormalizedTransaction {
	return ingest.Process(s.Table, s.Mapping, s.Convention)
}

// Store persists import sessions between requests. Implementations must be
// safe for concurrent use.
type Store interface {
	// Save stores or replaces a session.
	Save(ctx context.Context, s *ImportSession) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, sessionID string) (*ImportSession, error)

	// List returns all sessions, newest first.
	List(ctx context.Context) ([]*ImportSession, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}
