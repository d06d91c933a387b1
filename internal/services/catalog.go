package services

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"
)

// resolveFiles returns the deliverable parts of unitID for ct, optionally
// narrowed to one language. A missing unit or an empty result is ErrItemMissing.
func resolveFiles(ctx context.Context, db *gorm.DB, unitID string, ct domain.ContentType, language string) ([]domain.UnitFile, error) {
	if _, err := repo.GetUnit(ctx, db, unitID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemMissing
		}
		return nil, err
	}
	files, err := repo.ListUnitFiles(ctx, db, unitID, ct, language)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrItemMissing
	}
	return files, nil
}

// partLabel falls back to "Part N" when the catalog has no label.
func partLabel(f domain.UnitFile) string {
	if f.Label != "" {
		return f.Label
	}
	return "Part " + strconv.Itoa(f.Part)
}
