package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/studyvault/internal/domain"
)

func sampleOrder(id, userID string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID: id, UserID: userID, Status: status, TotalPrice: 700,
		CreatedAt: time.Now().UTC(),
		Items: []domain.OrderItem{
			{ID: id + "-i2", Position: 1, ItemID: "B", ContentType: domain.ContentAssignment, Language: "SI", UnitPrice: 300},
			{ID: id + "-i1", Position: 0, ItemID: "A", ContentType: domain.ContentNote, Language: "EN", UnitPrice: 400},
		},
	}
}

func TestGetOrder_ItemsInPositionOrder(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.OrderItem{})
	ctx := context.Background()
	if err := CreateOrder(ctx, db, sampleOrder("o1", "u1", domain.OrderCompleted)); err != nil {
		t.Fatalf("create: %v", err)
	}
	o, err := GetOrder(ctx, db, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(o.Items) != 2 || o.Items[0].ItemID != "A" || o.Items[1].ItemID != "B" {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	if _, err := GetOrder(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkOrderUnlocked_OnceAndOnlyWhenCompleted(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.OrderItem{})
	ctx := context.Background()
	if err := CreateOrder(ctx, db, sampleOrder("o1", "u1", domain.OrderPendingPayment)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := MarkOrderUnlocked(ctx, db, "o1"); !errors.Is(err, ErrStale) {
		t.Fatalf("unlock of non-completed order must be stale, got %v", err)
	}
	if err := UpdateOrderStatus(ctx, db, "o1", []domain.OrderStatus{domain.OrderPendingPayment}, domain.OrderCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := MarkOrderUnlocked(ctx, db, "o1"); err != nil {
		t.Fatalf("first unlock: %v", err)
	}
	if err := MarkOrderUnlocked(ctx, db, "o1"); !errors.Is(err, ErrStale) {
		t.Fatalf("second unlock must be stale, got %v", err)
	}
	o, _ := GetOrder(ctx, db, "o1")
	if !o.ContentUnlocked {
		t.Fatalf("expected content_unlocked=true")
	}
}

func TestUpdateOrderStatus_RejectsUnexpectedSource(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.OrderItem{})
	ctx := context.Background()
	if err := CreateOrder(ctx, db, sampleOrder("o1", "u1", domain.OrderCompleted)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := UpdateOrderStatus(ctx, db, "o1", []domain.OrderStatus{domain.OrderPendingPayment}, domain.OrderProcessing)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
}

func TestListOrders_NewestFirst(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.OrderItem{})
	ctx := context.Background()
	older := sampleOrder("o1", "u1", domain.OrderPendingPayment)
	older.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := sampleOrder("o2", "u1", domain.OrderPendingPayment)
	newer.CreatedAt = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	other := sampleOrder("o3", "u2", domain.OrderPendingPayment)
	for _, o := range []*domain.Order{older, newer, other} {
		if err := CreateOrder(ctx, db, o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}
	got, err := ListOrders(ctx, db, "u1")
	if err != nil || len(got) != 2 || got[0].ID != "o2" {
		t.Fatalf("expected [o2 o1], got %+v err=%v", got, err)
	}
	if len(got[0].Items) != 2 {
		t.Fatalf("expected items preloaded")
	}
}
