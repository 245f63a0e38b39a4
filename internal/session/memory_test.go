package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLoadAbsent(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), 1, 2)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(1, 2, "entrata", "categoria", time.Hour)
	s.SetField("importo", "25.50")
	s.TrackMessage(10)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Version != 1 {
		t.Fatalf("version = %d, want 1", s.Version)
	}

	got, err := store.Load(ctx, 1, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Command != "entrata" || got.Step != "categoria" {
		t.Fatalf("loaded %q/%q", got.Command, got.Step)
	}
	if v, _ := got.Field("importo"); v != "25.50" {
		t.Fatalf("importo = %q", v)
	}

	// Mutating the loaded copy must not affect the stored session.
	got.SetField("importo", "99.99")
	again, _ := store.Load(ctx, 1, 2)
	if v, _ := again.Field("importo"); v != "25.50" {
		t.Fatalf("store aliased loaded session: importo = %q", v)
	}
}

func TestMemoryStoreSupersede(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := New(1, 2, "entrata", "importo", time.Hour)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	// A fresh session (version 0) for the same pair overwrites wholesale.
	second := New(1, 2, "uscita", "categoria", time.Hour)
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.Load(ctx, 1, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Command != "uscita" || got.Step != "categoria" {
		t.Fatalf("superseded session = %q/%q, want uscita/categoria", got.Command, got.Step)
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
}

func TestMemoryStoreStaleSave(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(1, 2, "entrata", "categoria", time.Hour)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	a, _ := store.Load(ctx, 1, 2)
	b, _ := store.Load(ctx, 1, 2)

	a.Step = "importo"
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("save a: %v", err)
	}

	b.Step = "periodo"
	if err := store.Save(ctx, b); !errors.Is(err, ErrStale) {
		t.Fatalf("save b err = %v, want ErrStale", err)
	}

	got, _ := store.Load(ctx, 1, 2)
	if got.Step != "importo" {
		t.Fatalf("step = %q, want the first writer's value", got.Step)
	}
}

func TestMemoryStoreDeleteReturnsTrackedMessages(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(1, 2, "entrata", "categoria", time.Hour)
	s.TrackMessage(10)
	s.TrackMessage(11)
	s.TrackMessage(12)
	s.NoticeMessageID = 12
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	ids, err := store.Delete(ctx, 1, 2, DeleteOptions{DropMessages: true, KeepNotice: true})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 11 {
		t.Fatalf("ids = %v, want [10 11] (notice preserved)", ids)
	}

	if _, err := store.Load(ctx, 1, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load after delete err = %v, want ErrNotFound", err)
	}
	if _, err := store.Delete(ctx, 1, 2, DeleteOptions{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpireAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	live := New(1, 2, "entrata", "categoria", 48*time.Hour)
	if err := store.Save(ctx, live); err != nil {
		t.Fatalf("save live: %v", err)
	}
	stale := New(3, 4, "uscita", "importo", time.Hour)
	if err := store.Save(ctx, stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	// Move the clock past the stale session's expiry but not the live one's.
	store.now = func() time.Time { return stale.ExpiresAt.Add(time.Minute) }

	// Still present immediately before the sweep.
	if _, err := store.Load(ctx, 3, 4); err != nil {
		t.Fatalf("load before sweep: %v", err)
	}

	n, err := store.ExpireAll(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}
	if _, err := store.Load(ctx, 3, 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session survived the sweep: %v", err)
	}
	if _, err := store.Load(ctx, 1, 2); err != nil {
		t.Fatalf("live session swept: %v", err)
	}
}

func TestSessionTTLRefreshOnSave(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	s := New(1, 2, "entrata", "categoria", 30*time.Minute)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Ten minutes later a step validates; the expiry window restarts from
	// the last update.
	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	s.Step = "importo"
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _ := store.Load(ctx, 1, 2)
	want := base.Add(10 * time.Minute).Add(30 * time.Minute)
	if !got.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", got.ExpiresAt, want)
	}
}
