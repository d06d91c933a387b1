// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Entitlement ledger.
//
// The ledger is written by two engines (fulfillment and redemption) and read
// by the download issuer. Rows are never deleted.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
)

// CreateEntitlements inserts a batch of unlock records. Each record is
// validated first so a malformed batch never reaches the store.
func CreateEntitlements(ctx context.Context, db *gorm.DB, ents []domain.Entitlement) error {
	if len(ents) == 0 {
		return nil
	}
	for i := range ents {
		if err := domain.Validate(ents[i]); err != nil {
			return err
		}
	}
	return db.WithContext(ctx).Create(&ents).Error
}

// GetEntitlement fetches one unlock record by ID.
func GetEntitlement(ctx context.Context, db *gorm.DB, id string) (*domain.Entitlement, error) {
	var e domain.Entitlement
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	if err := domain.Validate(e); err != nil {
		return nil, err
	}
	return &e, nil
}

// EntitlementFilter narrows listing queries. A nil Downloaded matches both.
type EntitlementFilter struct {
	Downloaded *bool
}

func (f EntitlementFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Downloaded != nil {
		q = q.Where("downloaded = ?", *f.Downloaded)
	}
	return q
}

// CountEntitlements returns how many unlock records a user holds.
func CountEntitlements(ctx context.Context, db *gorm.DB, userID string, f EntitlementFilter) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Entitlement{}).Where("user_id = ?", userID)
	err := f.apply(q).Count(&total).Error
	return total, err
}

// ListEntitlementsPage returns a page of a user's unlock records ordered by
// unlock time, most recent first.
func ListEntitlementsPage(ctx context.Context, db *gorm.DB, userID string, f EntitlementFilter, offset, limit int) ([]domain.Entitlement, error) {
	var out []domain.Entitlement
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	err := f.apply(q).
		Order("unlocked_at desc").
		Order("part asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountEntitlementsBySource returns how many records a source event produced.
func CountEntitlementsBySource(ctx context.Context, db *gorm.DB, kind domain.SourceKind, sourceID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("source_kind = ? AND source_id = ?", kind, sourceID).
		Count(&total).Error
	return total, err
}

// MarkEntitlementDownloaded sets downloaded/downloaded_at the first time only.
// It reports whether this call performed the transition.
func MarkEntitlementDownloaded(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("id = ? AND downloaded = ?", id, false).
		Updates(map[string]any{"downloaded": true, "downloaded_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
