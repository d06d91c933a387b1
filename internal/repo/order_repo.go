// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Order and its
// line items.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
)

// CreateOrder inserts an order together with its line items.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	if err := domain.Validate(o); err != nil {
		return err
	}
	return db.WithContext(ctx).Create(o).Error
}

// GetOrder loads an order and its items in checkout order. Inside a
// transaction the order row is locked where the dialect supports it.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	err := forUpdate(db.WithContext(ctx)).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	if err := domain.Validate(o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns a user's orders, newest first, with items.
func ListOrders(ctx context.Context, db *gorm.DB, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateOrderStatus moves an order from one of the allowed statuses to next.
// It returns ErrStale when the order is not currently in an allowed status.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id string, from []domain.OrderStatus, next domain.OrderStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": next, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// MarkOrderUnlocked flips content_unlocked to true. The predicate re-checks
// status and the flag at commit time; zero affected rows yields ErrStale.
func MarkOrderUnlocked(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ? AND content_unlocked = ?", id, domain.OrderCompleted, false).
		Updates(map[string]any{"content_unlocked": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
