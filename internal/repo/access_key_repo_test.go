package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/studyvault/internal/domain"
)

func newKey(id, token string) *domain.AccessKey {
	return &domain.AccessKey{ID: id, Key: token, ItemID: "unit-07", ContentType: domain.ContentNote, Status: domain.KeyAvailable}
}

func TestCreateAccessKey_DuplicateToken(t *testing.T) {
	db := newTestDB(t, &domain.AccessKey{})
	ctx := context.Background()

	if err := CreateAccessKey(ctx, db, newKey("k1", "ABC")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := CreateAccessKey(ctx, db, newKey("k2", "ABC")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateAccessKey_RejectsInvalidRecord(t *testing.T) {
	db := newTestDB(t, &domain.AccessKey{})
	k := newKey("k1", "ABC")
	k.ContentType = "video"
	if err := CreateAccessKey(context.Background(), db, k); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestGetAvailableAccessKey_CaseSensitiveAndStatus(t *testing.T) {
	db := newTestDB(t, &domain.AccessKey{})
	ctx := context.Background()
	if err := CreateAccessKey(ctx, db, newKey("k1", "AbC-123")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := GetAvailableAccessKey(ctx, db, "abc-123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lookup must be case-sensitive, got %v", err)
	}
	k, err := GetAvailableAccessKey(ctx, db, "AbC-123")
	if err != nil || k.ID != "k1" {
		t.Fatalf("expected k1, got %+v err=%v", k, err)
	}

	if err := BindAccessKey(ctx, db, "k1", "u1", time.Now().UTC()); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := GetAvailableAccessKey(ctx, db, "AbC-123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bound key must not be available, got %v", err)
	}
}

func TestBindAccessKey_SecondBindIsStale(t *testing.T) {
	db := newTestDB(t, &domain.AccessKey{})
	ctx := context.Background()
	if err := CreateAccessKey(ctx, db, newKey("k1", "T")); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now().UTC()
	if err := BindAccessKey(ctx, db, "k1", "u1", now); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	if err := BindAccessKey(ctx, db, "k1", "u2", now); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	var got domain.AccessKey
	if err := db.First(&got, "id = ?", "k1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.KeyBound || got.BoundTo == nil || *got.BoundTo != "u1" || got.BoundAt == nil {
		t.Fatalf("unexpected key state: %+v", got)
	}
}

func TestListAccessKeys_Filters(t *testing.T) {
	db := newTestDB(t, &domain.AccessKey{})
	ctx := context.Background()
	for i, tok := range []string{"A1", "A2", "B1"} {
		k := newKey(tok, tok)
		if tok[0] == 'B' {
			k.ItemID = "unit-08"
		}
		k.CreatedAt = time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := CreateAccessKey(ctx, db, k); err != nil {
			t.Fatalf("create %s: %v", tok, err)
		}
	}
	if err := BindAccessKey(ctx, db, "A1", "u1", time.Now().UTC()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	all, err := ListAccessKeys(ctx, db, "", "", 0)
	if err != nil || len(all) != 3 || all[0].ID != "B1" {
		t.Fatalf("expected 3 keys newest first, got %d err=%v", len(all), err)
	}
	avail, _ := ListAccessKeys(ctx, db, "unit-07", domain.KeyAvailable, 0)
	if len(avail) != 1 || avail[0].ID != "A2" {
		t.Fatalf("expected only A2 available for unit-07, got %+v", avail)
	}
	limited, _ := ListAccessKeys(ctx, db, "", "", 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}
}
