// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only lookups into the unit catalog.
// The delivery core never writes these tables; SeedUnit exists for admin
// tooling and tests.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
)

// GetUnit fetches a catalog unit by ID, or ErrNotFound.
func GetUnit(ctx context.Context, db *gorm.DB, id string) (*domain.Unit, error) {
	var u domain.Unit
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUnitFiles returns the file parts of a unit for a content type, ordered
// by part. An empty language matches every language.
func ListUnitFiles(ctx context.Context, db *gorm.DB, unitID string, ct domain.ContentType, language string) ([]domain.UnitFile, error) {
	q := db.WithContext(ctx).Where("unit_id = ? AND content_type = ?", unitID, ct)
	if language != "" {
		q = q.Where("language = ?", language)
	}
	var out []domain.UnitFile
	err := q.Order("language asc").Order("part asc").Find(&out).Error
	return out, err
}

// SeedUnit inserts a unit with its files.
func SeedUnit(ctx context.Context, db *gorm.DB, u *domain.Unit) error {
	return db.WithContext(ctx).Create(u).Error
}
