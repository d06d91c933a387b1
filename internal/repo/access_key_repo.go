// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for AccessKey.
//
// Error semantics:
//   - Lookups that match nothing return ErrNotFound.
//   - BindAccessKey returns ErrStale when the key is no longer available at
//     commit time (a concurrent redemption won).
//   - Duplicate tokens surface as ErrDuplicate.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation.
var ErrDuplicate = errors.New("duplicate")

// ErrStale indicates that a conditional update matched no row because the
// record changed since it was read.
var ErrStale = errors.New("stale record")

// CreateAccessKey inserts a key row. The caller supplies ID and token.
func CreateAccessKey(ctx context.Context, db *gorm.DB, k *domain.AccessKey) error {
	if err := domain.Validate(k); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(k).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetAvailableAccessKey fetches the key whose token matches exactly and whose
// status is still "available". Inside a transaction the row is locked where
// the dialect supports it.
func GetAvailableAccessKey(ctx context.Context, db *gorm.DB, token string) (*domain.AccessKey, error) {
	var k domain.AccessKey
	err := forUpdate(db.WithContext(ctx)).
		Where("key = ? AND status = ?", token, domain.KeyAvailable).
		First(&k).Error
	if err != nil {
		return nil, err
	}
	if err := domain.Validate(k); err != nil {
		return nil, err
	}
	return &k, nil
}

// BindAccessKey transitions a key from available to bound. The status
// predicate is re-checked by the UPDATE itself; zero affected rows means a
// concurrent writer bound it first and ErrStale is returned.
func BindAccessKey(ctx context.Context, db *gorm.DB, id, userID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.AccessKey{}).
		Where("id = ? AND status = ?", id, domain.KeyAvailable).
		Updates(map[string]any{
			"status":     domain.KeyBound,
			"bound_to":   userID,
			"bound_at":   at,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// ListAccessKeys returns keys newest first, optionally filtered by item and
// status. Empty filters match everything.
func ListAccessKeys(ctx context.Context, db *gorm.DB, itemID string, status domain.KeyStatus, limit int) ([]domain.AccessKey, error) {
	q := db.WithContext(ctx).Model(&domain.AccessKey{})
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.AccessKey
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// IsDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite: "UNIQUE constraint failed"; Postgres: "duplicate key value violates unique constraint"
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
