package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-import/internal/ingest"
	"github.com/dvloznov/statement-import/internal/session"
)

func newSession(created time.Time) *session.ImportSession {
	m := ingest.NewColumnMapping()
	m.Date = 0
	m.Amount = 1
	return &session.ImportSession{
		SessionID: uuid.NewString(),
		Filename:  "statement.csv",
		Table: &ingest.RawTable{
			Headers: []string{"Date", "Amount"},
			Rows:    [][]ingest.Cell{{"2024-01-01", "5.00"}},
		},
		SuggestedMapping: m,
		Mapping:          m,
		Convention:       ingest.BankStyle,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	sess := newSession(time.Now())

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "statement.csv" || got.Mapping != sess.Mapping {
		t.Errorf("Get returned %+v", got)
	}

	// Mutating the returned copy must not touch stored state.
	got.Mapping.Amount = 5
	again, err := store.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Mapping.Amount != 1 {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	sess := newSession(time.Now())
	sess.SessionID = ""
	if err := NewStore().Save(context.Background(), sess); err == nil {
		t.Error("expected error for empty session ID")
	}
}

func TestStore_GetMissing(t *testing.T) {
	if _, err := NewStore().Get(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing session")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	older := newSession(time.Now().Add(-time.Hour))
	newer := newSession(time.Now())
	if err := store.Save(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, newer); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d sessions", len(list))
	}
	if list[0].SessionID != newer.SessionID {
		t.Error("List is not newest-first")
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	sess := newSession(time.Now())

	if err := store.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, sess.SessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.SessionID); err == nil {
		t.Error("session still present after delete")
	}
	if err := store.Delete(ctx, sess.SessionID); err == nil {
		t.Error("expected error deleting a missing session")
	}
}
