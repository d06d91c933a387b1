// Package repo – store adapters
//
// This file adapts the repository free functions to the method sets the
// services declare (services.OrderRepo, services.EntitlementRepo), so the
// services stay decoupled from this package while reusing the functions.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
)

// OrderStore proxies the order functions.
type OrderStore struct{}

// CreateOrder proxies CreateOrder.
func (OrderStore) CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return CreateOrder(ctx, db, o)
}

// GetOrder proxies GetOrder.
func (OrderStore) GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	return GetOrder(ctx, db, id)
}

// ListOrders proxies ListOrders.
func (OrderStore) ListOrders(ctx context.Context, db *gorm.DB, userID string) ([]domain.Order, error) {
	return ListOrders(ctx, db, userID)
}

// UpdateOrderStatus proxies UpdateOrderStatus.
func (OrderStore) UpdateOrderStatus(ctx context.Context, db *gorm.DB, id string, from []domain.OrderStatus, next domain.OrderStatus) error {
	return UpdateOrderStatus(ctx, db, id, from, next)
}

// EntitlementStore proxies the entitlement read functions.
type EntitlementStore struct{}

// CountEntitlements proxies CountEntitlements.
func (EntitlementStore) CountEntitlements(ctx context.Context, db *gorm.DB, userID string, f EntitlementFilter) (int64, error) {
	return CountEntitlements(ctx, db, userID, f)
}

// ListEntitlementsPage proxies ListEntitlementsPage.
func (EntitlementStore) ListEntitlementsPage(ctx context.Context, db *gorm.DB, userID string, f EntitlementFilter, offset, limit int) ([]domain.Entitlement, error) {
	return ListEntitlementsPage(ctx, db, userID, f, offset, limit)
}

// EntitlementsStats proxies EntitlementsStats.
func (EntitlementStore) EntitlementsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return EntitlementsStats(ctx, db, userID)
}
