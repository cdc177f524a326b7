// Package handlers implements the HTTP endpoints for the statement import
// flow: upload a file, inspect the suggested column mapping, override it, and
// preview the normalized transactions.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-import/internal/api/middleware"
	"github.com/dvloznov/statement-import/internal/extract"
	"github.com/dvloznov/statement-import/internal/ingest"
	"github.com/dvloznov/statement-import/internal/session"
)

// classifierSampleRows caps how many data rows the classifier inspects for
// content-based fallback.
const classifierSampleRows = 20

// ImportsHandler handles the import session endpoints.
type ImportsHandler struct {
	store          session.Store
	classifier     *ingest.Classifier
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(store session.Store, classifier *ingest.Classifier, maxUploadBytes int64, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		store:          store,
		classifier:     classifier,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// sessionView is the JSON shape returned for a session. The raw table is
// summarized rather than echoed back in full.
type sessionView struct {
	SessionID        string                     `json:"session_id"`
	Filename         string                     `json:"filename"`
	Headers          []string                   `json:"headers"`
	RowCount         int                        `json:"row_count"`
	SuggestedMapping ingest.ColumnMapping       `json:"suggested_mapping"`
	Mapping          ingest.ColumnMapping       `json:"mapping"`
	Convention       ingest.StatementConvention `json:"convention"`
	SampleRows       [][]ingest.Cell            `json:"sample_rows,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

func newSessionView(s *session.ImportSession, includeSamples bool) sessionView {
	v := sessionView{
		SessionID:        s.SessionID,
		Filename:         s.Filename,
		Headers:          s.Table.Headers,
		RowCount:         s.Table.NumRows(),
		SuggestedMapping: s.SuggestedMapping,
		Mapping:          s.Mapping,
		Convention:       s.Convention,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if includeSamples {
		v.SampleRows = extract.SampleRows(s.Table, 5)
	}
	return v
}

// CreateImport handles POST /api/imports. The request body is the raw
// statement file; the filename comes from the X-Filename header or the
// filename query parameter.
func (h *ImportsHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename := r.Header.Get("X-Filename")
	if filename == "" {
		filename = r.URL.Query().Get("filename")
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return
		}
		h.log.Error().Err(err).Msg("Failed to read upload body")
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	table, err := extract.FromBytes(data)
	if err != nil {
		h.log.Warn().Err(err).Str("filename", filename).Msg("Failed to extract table from upload")
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	suggested := h.classifier.Classify(table.Headers, extract.SampleRows(table, classifierSampleRows))
	now := time.Now().UTC()

	sess := &session.ImportSession{
		SessionID:        uuid.NewString(),
		Filename:         filename,
		Table:            table,
		SuggestedMapping: suggested,
		Mapping:          suggested,
		Convention:       ingest.ParseConvention(r.URL.Query().Get("convention")),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.store.Save(ctx, sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save import session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save import session")
		return
	}

	h.log.Info().
		Str("session_id", sess.SessionID).
		Str("filename", filename).
		Int("rows", table.NumRows()).
		Msg("Import session created")

	middleware.WriteJSON(w, http.StatusCreated, newSessionView(sess, true))
}

// ListImports handles GET /api/imports
func (h *ImportsHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import sessions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list import sessions")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s, false))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"imports": views,
		"count":   len(views),
	})
}

// GetImport handles GET /api/imports/:sessionId
func (h *ImportsHandler) GetImport(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Import session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newSessionView(sess, true))
}

// DeleteImport handles DELETE /api/imports/:sessionId
func (h *ImportsHandler) DeleteImport(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.store.Delete(r.Context(), sessionID); err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Import session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// mappingUpdate is the request body for a mapping override. Every field is
// optional: absent fields keep their current value, so a caller can nudge a
// single role. Reset discards all edits and restores the suggestion.
type mappingUpdate struct {
	Date                 *int    `json:"date"`
	Description          *int    `json:"description"`
	SecondaryDescription *int    `json:"secondary_description"`
	Amount               *int    `json:"amount"`
	DebitAmount          *int    `json:"debit_amount"`
	CreditAmount         *int    `json:"credit_amount"`
	Convention           *string `json:"convention"`
	Reset                bool    `json:"reset"`
}

func (u mappingUpdate) apply(m ingest.ColumnMapping) ingest.ColumnMapping {
	if u.Date != nil {
		m.Date = *u.Date
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.SecondaryDescription != nil {
		m.SecondaryDescription = *u.SecondaryDescription
	}
	if u.Amount != nil {
		m.Amount = *u.Amount
	}
	if u.DebitAmount != nil {
		m.DebitAmount = *u.DebitAmount
	}
	if u.CreditAmount != nil {
		m.CreditAmount = *u.CreditAmount
	}
	return m
}

// UpdateMapping handles PUT /api/imports/:sessionId/mapping
func (h *ImportsHandler) UpdateMapping(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()

	var update mappingUpdate
	if err := decodeJSON(r, &update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.store.Get(ctx, sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Import session not found")
		return
	}

	if update.Reset {
		sess.Mapping = sess.SuggestedMapping
	} else {
		mapping := update.apply(sess.Mapping)
		if err := validateMapping(mapping, len(sess.Table.Headers)); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess.Mapping = mapping
	}
	if update.Convention != nil {
		sess.Convention = ingest.ParseConvention(*update.Convention)
	}
	sess.UpdatedAt = time.Now().UTC()

	if err := h.store.Save(ctx, sess); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to save mapping update")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save mapping update")
		return
	}

	h.log.Info().
		Str("session_id", sessionID).
		Interface("mapping", sess.Mapping).
		Str("convention", string(sess.Convention)).
		Msg("Mapping updated")

	middleware.WriteJSON(w, http.StatusOK, newSessionView(sess, true))
}

// Preview handles GET /api/imports/:sessionId/preview. Processing is pure, so
// the preview recomputes from the stored table on every call.
func (h *ImportsHandler) Preview(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Import session not found")
		return
	}

	transactions := sess.Process()

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"session_id":   sess.SessionID,
		"convention":   sess.Convention,
		"mapping":      sess.Mapping,
		"transactions": transactions,
		"row_count":    len(transactions),
		"valid_count":  ingest.CountValid(transactions),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// validateMapping rejects column indexes outside the table. Unassigned (-1)
// is always allowed; whether the mapping can produce amounts is a per-row
// concern, not a rejection here.
func validateMapping(m ingest.ColumnMapping, numCols int) error {
	for _, role := range []ingest.ColumnRole{
		ingest.RoleDate,
		ingest.RoleDescription,
		ingest.RoleSecondaryDescription,
		ingest.RoleAmount,
		ingest.RoleDebitAmount,
		ingest.RoleCreditAmount,
	} {
		if col := m.Get(role); col != ingest.Unassigned && (col < 0 || col >= numCols) {
			return fmt.Errorf("column index %d for role %q is out of range", col, role)
		}
	}
	return nil
}
