// Package services – OrderService
//
// This file implements the upstream order flow that feeds fulfillment:
// checkout, the administrator's manual status changes after out-of-band
// payment confirmation, and owner-scoped reads. Orders are never an
// authorization source for downloads.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutItem is one requested line of a new order.
type CheckoutItem struct {
	ItemID      string             `json:"item_id"      binding:"required"`
	ContentType domain.ContentType `json:"content_type" binding:"required"`
	Language    string             `json:"language"     binding:"required"`
	UnitPrice   float64            `json:"unit_price"`
}

// OrderRepo defines the persistence contract required by OrderService. Every
// method runs against the handle it is given, which may be a transaction.
type OrderRepo interface {
	CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error
	// GetOrder returns repo.ErrNotFound for an unknown id.
	GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, db *gorm.DB, userID string) ([]domain.Order, error)
	// UpdateOrderStatus returns repo.ErrStale unless the current status is in from.
	UpdateOrderStatus(ctx context.Context, db *gorm.DB, id string, from []domain.OrderStatus, next domain.OrderStatus) error
}

// OrderService manages orders up to completion.
type OrderService struct {
	DB   *gorm.DB
	Repo OrderRepo
	Now  func() time.Time
}

// NewOrderService wires an OrderService to db through r.
func NewOrderService(db *gorm.DB, r OrderRepo) *OrderService {
	return &OrderService{DB: db, Repo: r}
}

// Checkout records a new order for userID and moves it to pending_payment.
func (s *OrderService) Checkout(ctx context.Context, userID string, items []CheckoutItem) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Checkout",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.Int("items", len(items))),
	)
	defer span.End()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	now := s.now()
	o := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     make([]domain.OrderItem, 0, len(items)),
	}
	for i, it := range items {
		if !it.ContentType.Valid() {
			return nil, ErrInvalidContentType
		}
		o.Items = append(o.Items, domain.OrderItem{
			ID:          uuid.NewString(),
			Position:    i,
			ItemID:      it.ItemID,
			ContentType: it.ContentType,
			Language:    it.Language,
			UnitPrice:   it.UnitPrice,
		})
		o.TotalPrice += it.UnitPrice
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.CreateOrder(ctx, tx, o); err != nil {
			return err
		}
		return s.Repo.UpdateOrderStatus(ctx, tx, o.ID, []domain.OrderStatus{domain.OrderPending}, domain.OrderPendingPayment)
	})
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderPendingPayment
	logger(ctx).Info().Str("order_id", o.ID).Float64("total", o.TotalPrice).Msg("order placed")
	return o, nil
}

// MarkCompleted records manual payment confirmation.
func (s *OrderService) MarkCompleted(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, []domain.OrderStatus{domain.OrderPendingPayment, domain.OrderProcessing}, domain.OrderCompleted)
}

// MarkProcessing records that payment confirmation is under way.
func (s *OrderService) MarkProcessing(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, []domain.OrderStatus{domain.OrderPendingPayment}, domain.OrderProcessing)
}

func (s *OrderService) transition(ctx context.Context, orderID string, from []domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Transition",
		trace.WithAttributes(attribute.String("order.id", orderID), attribute.String("to", string(to))),
	)
	defer span.End()

	var out *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Repo.GetOrder(ctx, tx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := s.Repo.UpdateOrderStatus(ctx, tx, orderID, from, to); err != nil {
			if errors.Is(err, repo.ErrStale) {
				return ErrInvalidTransition
			}
			return err
		}
		o, err := s.Repo.GetOrder(ctx, tx, orderID)
		out = o
		return err
	})
	if err != nil {
		return nil, err
	}
	logger(ctx).Info().Str("order_id", orderID).Str("status", string(to)).Msg("order status changed")
	return out, nil
}

// Get returns orderID if it belongs to userID.
func (s *OrderService) Get(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	o, err := s.Repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListForUser returns userID's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Repo.ListOrders(ctx, s.DB, userID)
}

func (s *OrderService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
