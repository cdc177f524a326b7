package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-import/internal/ingest"
	"github.com/dvloznov/statement-import/internal/session/inmemory"
)

const sampleCSV = "Date,Description,Debit,Credit\n" +
	"2024-03-15,PAYROLL,,2500.00\n" +
	"2024-03-18,COFFEE,4.50,\n" +
	"not-a-date,MYSTERY,1.00,\n"

func newTestHandler() *ImportsHandler {
	return NewImportsHandler(inmemory.NewStore(), ingest.NewClassifier(), 1<<20, zerolog.Nop())
}

func createImport(t *testing.T, h *ImportsHandler, body string) sessionView {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(body))
	req.Header.Set("X-Filename", "statement.csv")
	rec := httptest.NewRecorder()

	h.CreateImport(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateImport status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view sessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return view
}

func TestCreateImport(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, sampleCSV)

	if view.SessionID == "" {
		t.Error("response has no session_id")
	}
	if view.Filename != "statement.csv" {
		t.Errorf("filename = %q", view.Filename)
	}
	if view.RowCount != 3 {
		t.Errorf("row_count = %d, want 3", view.RowCount)
	}
	if view.Mapping.Date != 0 || view.Mapping.DebitAmount != 2 || view.Mapping.CreditAmount != 3 {
		t.Errorf("suggested mapping = %+v", view.Mapping)
	}
	if view.Mapping != view.SuggestedMapping {
		t.Error("initial mapping should equal the suggestion")
	}
	if len(view.SampleRows) != 3 {
		t.Errorf("sample_rows = %d, want 3", len(view.SampleRows))
	}
}

func TestCreateImport_Unextractable(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader("no header here\njust noise\n"))
	rec := httptest.NewRecorder()

	h.CreateImport(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestCreateImport_TooLarge(t *testing.T) {
	h := NewImportsHandler(inmemory.NewStore(), ingest.NewClassifier(), 16, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(sampleCSV))
	rec := httptest.NewRecorder()

	h.CreateImport(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestGetImport_NotFound(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.GetImport(rec, httptest.NewRequest(http.MethodGet, "/api/imports/x", nil), "x")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateMapping_PartialOverride(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, sampleCSV)

	// Move only the description; everything else must survive.
	body := `{"description":3}`
	req := httptest.NewRequest(http.MethodPut, "/api/imports/"+view.SessionID+"/mapping", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateMapping(rec, req, view.SessionID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated sessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Mapping.Description != 3 {
		t.Errorf("description = %d, want 3", updated.Mapping.Description)
	}
	if updated.Mapping.Date != view.Mapping.Date || updated.Mapping.DebitAmount != view.Mapping.DebitAmount {
		t.Errorf("unrelated roles changed: %+v", updated.Mapping)
	}
	if updated.SuggestedMapping != view.SuggestedMapping {
		t.Error("suggestion must never change on override")
	}
}

func TestUpdateMapping_Reset(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, sampleCSV)

	put := func(body string) sessionView {
		req := httptest.NewRequest(http.MethodPut, "/api/imports/"+view.SessionID+"/mapping", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.UpdateMapping(rec, req, view.SessionID)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var v sessionView
		if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
			t.Fatal(err)
		}
		return v
	}

	edited := put(`{"date":1,"description":0}`)
	if edited.Mapping == edited.SuggestedMapping {
		t.Fatal("edit did not diverge from the suggestion")
	}

	restored := put(`{"reset":true}`)
	if restored.Mapping != restored.SuggestedMapping {
		t.Errorf("reset mapping = %+v, want suggestion %+v", restored.Mapping, restored.SuggestedMapping)
	}
}

func TestUpdateMapping_OutOfRangeColumn(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodPut, "/api/imports/"+view.SessionID+"/mapping", strings.NewReader(`{"amount":12}`))
	rec := httptest.NewRecorder()
	h.UpdateMapping(rec, req, view.SessionID)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, sampleCSV)

	rec := httptest.NewRecorder()
	h.Preview(rec, httptest.NewRequest(http.MethodGet, "/api/imports/"+view.SessionID+"/preview", nil), view.SessionID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transactions []ingest.NormalizedTransaction `json:"transactions"`
		RowCount     int                            `json:"row_count"`
		ValidCount   int                            `json:"valid_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RowCount != 3 || resp.ValidCount != 2 {
		t.Errorf("row_count = %d valid_count = %d, want 3 and 2", resp.RowCount, resp.ValidCount)
	}

	// A source credit lands on the ledger debit side.
	payroll := resp.Transactions[0]
	if payroll.Date != "2024-03-15" || !payroll.DebitAmount.Equal(mustDecimal(t, "2500.00")) {
		t.Errorf("payroll row = %+v", payroll)
	}
	coffee := resp.Transactions[1]
	if !coffee.CreditAmount.Equal(mustDecimal(t, "4.50")) {
		t.Errorf("coffee row = %+v", coffee)
	}

	bad := resp.Transactions[2]
	if bad.IsValid || len(bad.Errors) == 0 {
		t.Errorf("unparseable date row should be invalid: %+v", bad)
	}
}

func TestPreview_ConventionSwitch(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, "Date,Description,Amount\n2024-01-05,SHOP,25.00\n")

	preview := func() ingest.NormalizedTransaction {
		rec := httptest.NewRecorder()
		h.Preview(rec, httptest.NewRequest(http.MethodGet, "/", nil), view.SessionID)
		if rec.Code != http.StatusOK {
			t.Fatalf("preview status = %d", rec.Code)
		}
		var resp struct {
			Transactions []ingest.NormalizedTransaction `json:"transactions"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return resp.Transactions[0]
	}

	if tx := preview(); tx.DebitAmount.IsZero() {
		t.Errorf("bank-style positive amount should be a debit: %+v", tx)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"convention":"card"}`))
	rec := httptest.NewRecorder()
	h.UpdateMapping(rec, req, view.SessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("convention update status = %d", rec.Code)
	}

	if tx := preview(); tx.CreditAmount.IsZero() {
		t.Errorf("card-style positive amount should be a credit: %+v", tx)
	}
}

func TestListAndDelete(t *testing.T) {
	h := newTestHandler()
	view := createImport(t, h, sampleCSV)

	rec := httptest.NewRecorder()
	h.ListImports(rec, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 {
		t.Errorf("count = %d, want 1", list.Count)
	}

	rec = httptest.NewRecorder()
	h.DeleteImport(rec, httptest.NewRequest(http.MethodDelete, "/", nil), view.SessionID)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetImport(rec, httptest.NewRequest(http.MethodGet, "/", nil), view.SessionID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
