package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"
)

func TestCheckout_CreatesPendingPaymentOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, repo.OrderStore{})
	ctx := context.Background()

	o, err := svc.Checkout(ctx, "u1", []CheckoutItem{
		{ItemID: "A", ContentType: domain.ContentNote, Language: "EN", UnitPrice: 5},
		{ItemID: "B", ContentType: domain.ContentAssignment, Language: "EN", UnitPrice: 7.5},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.Status != domain.OrderPendingPayment || o.TotalPrice != 12.5 || o.ContentUnlocked {
		t.Fatalf("unexpected order: %+v", o)
	}

	got, err := svc.Get(ctx, o.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].ItemID != "A" || got.Items[1].ItemID != "B" {
		t.Fatalf("items must keep checkout order: %+v", got.Items)
	}
	if _, err := svc.Get(ctx, o.ID, "u2"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign order must look missing, got %v", err)
	}
}

func TestCheckout_Rejects(t *testing.T) {
	svc := NewOrderService(newTestDB(t), repo.OrderStore{})
	ctx := context.Background()
	line := CheckoutItem{ItemID: "A", ContentType: domain.ContentNote, Language: "EN"}

	if _, err := svc.Checkout(ctx, "", []CheckoutItem{line}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Checkout(ctx, "u1", nil); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
	line.ContentType = "video"
	if _, err := svc.Checkout(ctx, "u1", []CheckoutItem{line}); !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestOrderTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, repo.OrderStore{})
	ctx := context.Background()
	o := seedOrder(t, db, "u1", domain.OrderPendingPayment,
		domain.OrderItem{ItemID: "A", ContentType: domain.ContentNote, Language: "EN"})

	if _, err := svc.MarkProcessing(ctx, o.ID); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if _, err := svc.MarkProcessing(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	done, err := svc.MarkCompleted(ctx, o.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != domain.OrderCompleted || done.ContentUnlocked {
		t.Fatalf("completion must not unlock content: %+v", done)
	}
	if _, err := svc.MarkCompleted(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.MarkCompleted(ctx, "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListForUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, repo.OrderStore{})
	item := domain.OrderItem{ItemID: "A", ContentType: domain.ContentNote, Language: "EN"}
	seedOrder(t, db, "u1", domain.OrderPending, item)
	seedOrder(t, db, "u1", domain.OrderCompleted, item)
	seedOrder(t, db, "u2", domain.OrderCompleted, item)

	got, err := svc.ListForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	for _, o := range got {
		if o.UserID != "u1" || len(o.Items) != 1 {
			t.Fatalf("unexpected order in listing: %+v", o)
		}
	}
}

type fakeOrderRepo struct {
	created   []string
	createErr error

	order  *domain.Order
	getErr error

	updates   []domain.OrderStatus
	updateErr error
	updateDB  *gorm.DB
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, _ *gorm.DB, o *domain.Order) error {
	r.created = append(r.created, o.ID)
	return r.createErr
}

func (r *fakeOrderRepo) GetOrder(_ context.Context, _ *gorm.DB, id string) (*domain.Order, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.order, nil
}

func (r *fakeOrderRepo) ListOrders(context.Context, *gorm.DB, string) ([]domain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, db *gorm.DB, _ string, _ []domain.OrderStatus, next domain.OrderStatus) error {
	r.updates = append(r.updates, next)
	r.updateDB = db
	return r.updateErr
}

func TestCheckout_CreateFailureSkipsStatusChange(t *testing.T) {
	fr := &fakeOrderRepo{createErr: errors.New("constraint failed")}
	svc := NewOrderService(newTestDB(t), fr)

	o, err := svc.Checkout(context.Background(), "u1", []CheckoutItem{
		{ItemID: "A", ContentType: domain.ContentNote, Language: "EN", UnitPrice: 1},
	})
	if err == nil || o != nil {
		t.Fatalf("expected create error to surface, got %+v %v", o, err)
	}
	if len(fr.created) != 1 || len(fr.updates) != 0 {
		t.Fatalf("status must not change after a failed insert: created=%v updates=%v", fr.created, fr.updates)
	}
}

func TestTransition_RepoErrorsMapToServiceErrors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	fr := &fakeOrderRepo{order: &domain.Order{ID: "o1", UserID: "u1"}, updateErr: repo.ErrStale}
	svc := NewOrderService(db, fr)
	if _, err := svc.MarkCompleted(ctx, "o1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(fr.updates) != 1 || fr.updates[0] != domain.OrderCompleted {
		t.Fatalf("unexpected status writes: %v", fr.updates)
	}
	if fr.updateDB == nil || fr.updateDB == db {
		t.Fatalf("status write must run inside the transaction")
	}

	svc.Repo = &fakeOrderRepo{getErr: repo.ErrNotFound}
	if _, err := svc.Get(ctx, "o1", "u1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.MarkProcessing(ctx, "o1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
