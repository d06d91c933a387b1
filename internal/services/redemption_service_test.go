package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/studyvault/internal/domain"
)

type stubLimiter struct{ allow bool }

func (s stubLimiter) Allow(context.Context, string) bool { return s.allow }

func TestRedeem_TwoPartsThenReplayFails(t *testing.T) {
	db := newTestDB(t)
	seedUnit(t, db, "Unit-07",
		fileSpec{"EN", domain.ContentNote, 1, "notes/u7-part1.pdf"},
		fileSpec{"EN", domain.ContentNote, 2, "notes/u7-part2.pdf"},
		fileSpec{"EN", domain.ContentAssignment, 1, "assign/u7.pdf"},
	)
	k := seedKey(t, db, "K1-TOKEN", "Unit-07", domain.ContentNote)
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc := &RedemptionService{DB: db, Now: fixedClock(now)}
	ctx := context.Background()

	before := testutil.ToFloat64(entitlementsGranted.WithLabelValues(string(domain.SourceKey)))
	ents, err := svc.Redeem(ctx, "K1-TOKEN", "user2")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("expected 2 entitlements (one per part), got %d", len(ents))
	}
	for i, e := range ents {
		if e.UserID != "user2" || e.SourceID != k.ID || e.Language != nil || e.Part != i+1 || e.PartLabel != "Part "+string(rune('1'+i)) {
			t.Fatalf("unexpected entitlement %d: %+v", i, e)
		}
	}
	if got := testutil.ToFloat64(entitlementsGranted.WithLabelValues(string(domain.SourceKey))) - before; got != 2 {
		t.Fatalf("expected granted counter +2, got %v", got)
	}

	var stored domain.AccessKey
	if err := db.First(&stored, "id = ?", k.ID).Error; err != nil {
		t.Fatalf("reload key: %v", err)
	}
	if stored.Status != domain.KeyBound || stored.BoundTo == nil || *stored.BoundTo != "user2" || stored.BoundAt == nil {
		t.Fatalf("key not bound: %+v", stored)
	}

	if _, err := svc.Redeem(ctx, "K1-TOKEN", "user2"); !errors.Is(err, ErrKeyInvalid) {
		t.Fatalf("replay: expected ErrKeyInvalid, got %v", err)
	}
	if n := countEntitlements(t, db, "user2"); n != 2 {
		t.Fatalf("replay must not add entitlements, have %d", n)
	}
}

func TestRedeem_ItemMissingLeavesKeyAvailable(t *testing.T) {
	db := newTestDB(t)
	seedUnit(t, db, "Unit-09", fileSpec{"EN", domain.ContentAssignment, 1, "assign/u9.pdf"})
	seedKey(t, db, "NO-UNIT", "Unit-404", domain.ContentNote)
	seedKey(t, db, "NO-FILES", "Unit-09", domain.ContentNote)
	svc := &RedemptionService{DB: db}
	ctx := context.Background()

	for _, tok := range []string{"NO-UNIT", "NO-FILES"} {
		if _, err := svc.Redeem(ctx, tok, "u1"); !errors.Is(err, ErrItemMissing) {
			t.Fatalf("%s: expected ErrItemMissing, got %v", tok, err)
		}
		if _, err := lookupAvailable(ctx, db, tok); err != nil {
			t.Fatalf("%s: key must stay available, got %v", tok, err)
		}
	}
	if n := countEntitlements(t, db, "u1"); n != 0 {
		t.Fatalf("no entitlements expected, got %d", n)
	}
}

func TestRedeem_LostRaceIsKeyInvalid(t *testing.T) {
	db := newTestDB(t)
	seedUnit(t, db, "Unit-07", fileSpec{"EN", domain.ContentNote, 1, "notes/u7.pdf"})
	k := seedKey(t, db, "RACE", "Unit-07", domain.ContentNote)

	// Another redemption binds the key between our read and our write.
	interleave(t, db, "access_keys",
		"UPDATE access_keys SET status='bound', bound_to='rival', bound_at=CURRENT_TIMESTAMP WHERE id='"+k.ID+"'")

	svc := &RedemptionService{DB: db}
	if _, err := svc.Redeem(context.Background(), "RACE", "u1"); !errors.Is(err, ErrKeyInvalid) {
		t.Fatalf("expected ErrKeyInvalid for the loser, got %v", err)
	}
	if n := countEntitlements(t, db, "u1"); n != 0 {
		t.Fatalf("loser must not receive entitlements, got %d", n)
	}
}

func TestRedeem_GuardsAndThrottle(t *testing.T) {
	db := newTestDB(t)
	svc := &RedemptionService{DB: db, Limiter: stubLimiter{allow: false}}
	ctx := context.Background()

	if _, err := svc.Redeem(ctx, "X", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	before := testutil.ToFloat64(redemptions.WithLabelValues("throttled"))
	if _, err := svc.Redeem(ctx, "X", "u1"); !errors.Is(err, ErrRedeemThrottled) {
		t.Fatalf("expected ErrRedeemThrottled, got %v", err)
	}
	if got := testutil.ToFloat64(redemptions.WithLabelValues("throttled")) - before; got != 1 {
		t.Fatalf("expected throttled counter +1, got %v", got)
	}
}

func TestRedeem_DuplicatePathsCollapse(t *testing.T) {
	db := newTestDB(t)
	seedUnit(t, db, "Unit-11",
		fileSpec{"EN", domain.ContentNote, 1, "notes/shared.pdf"},
		fileSpec{"SI", domain.ContentNote, 1, "notes/shared.pdf"},
		fileSpec{"SI", domain.ContentNote, 2, "notes/si-2.pdf"},
	)
	seedKey(t, db, "MULTI", "Unit-11", domain.ContentNote)
	ents, err := (&RedemptionService{DB: db}).Redeem(context.Background(), "MULTI", "u1")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("expected 2 distinct files, got %d", len(ents))
	}
}
