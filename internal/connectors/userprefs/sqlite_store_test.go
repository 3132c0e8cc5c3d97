package userprefs

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetPreferences_DefaultsForNewSession(t *testing.T) {
	store := newTestStore(t)

	prefs, err := store.GetPreferences(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs != DefaultPreferences() {
		t.Fatalf("expected defaults, got %+v", prefs)
	}
}

func TestSetPreferences_RoundTripAndIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := Preferences{Animations: false, RefreshSecs: 60, HideSensitive: true, ThemeSystem: false}
	if err := store.SetPreferences(ctx, "alpha", saved); err != nil {
		t.Fatalf("set preferences: %v", err)
	}

	got, err := store.GetPreferences(ctx, "alpha")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if got != saved {
		t.Fatalf("expected %+v, got %+v", saved, got)
	}

	other, err := store.GetPreferences(ctx, "beta")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if other != DefaultPreferences() {
		t.Fatalf("other session should keep defaults, got %+v", other)
	}
}

func TestSetPreferences_InvalidRefreshFallsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetPreferences(ctx, "alpha", Preferences{RefreshSecs: 0}); err != nil {
		t.Fatalf("set preferences: %v", err)
	}
	got, err := store.GetPreferences(ctx, "alpha")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if got.RefreshSecs != DefaultPreferences().RefreshSecs {
		t.Fatalf("expected default refresh, got %d", got.RefreshSecs)
	}
}

func TestChatMessages_AppendListClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	msgs := []ChatMessage{
		{ID: "m1", Role: "user", Text: "any drone alerts today?"},
		{ID: "m2", Role: "assistant", Text: "one alert in the northern sector"},
	}
	for _, m := range msgs {
		if err := store.AppendMessage(ctx, "alpha", m); err != nil {
			t.Fatalf("append %s: %v", m.ID, err)
		}
	}

	items, err := store.ListMessages(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(items))
	}
	if items[0].ID != "m1" || items[1].ID != "m2" {
		t.Fatalf("expected oldest first, got %q then %q", items[0].ID, items[1].ID)
	}
	if items[0].CreatedAt == nil {
		t.Fatal("expected created_at to be set")
	}

	deleted, err := store.ClearMessages(ctx, "alpha")
	if err != nil {
		t.Fatalf("clear messages: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	items, err = store.ListMessages(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty transcript, got %d", len(items))
	}
}

func TestAppendMessage_RejectsBadInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendMessage(ctx, "alpha", ChatMessage{ID: "m1", Role: "system", Text: "hi"}); err == nil {
		t.Fatal("expected role error")
	}
	if err := store.AppendMessage(ctx, "alpha", ChatMessage{ID: "m1", Role: "user", Text: "   "}); err == nil {
		t.Fatal("expected empty text error")
	}
}
