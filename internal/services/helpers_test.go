package services

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fileSpec struct {
	lang string
	ct   domain.ContentType
	part int
	path string
}

func seedUnit(t *testing.T, db *gorm.DB, id string, files ...fileSpec) {
	t.Helper()
	u := &domain.Unit{ID: id, Name: "Unit " + id, Category: "biology"}
	for _, f := range files {
		u.Files = append(u.Files, domain.UnitFile{
			ID: uuid.NewString(), Language: f.lang, ContentType: f.ct, Part: f.part, Path: f.path,
		})
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed unit %s: %v", id, err)
	}
}

func seedKey(t *testing.T, db *gorm.DB, token, itemID string, ct domain.ContentType) *domain.AccessKey {
	t.Helper()
	k := &domain.AccessKey{ID: uuid.NewString(), Key: token, ItemID: itemID, ContentType: ct, Status: domain.KeyAvailable}
	if err := db.Create(k).Error; err != nil {
		t.Fatalf("seed key: %v", err)
	}
	return k
}

func seedOrder(t *testing.T, db *gorm.DB, userID string, status domain.OrderStatus, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	o := &domain.Order{ID: uuid.NewString(), UserID: userID, Status: status}
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].Position = i
		o.TotalPrice += items[i].UnitPrice
	}
	o.Items = items
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func countEntitlements(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Entitlement{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count entitlements: %v", err)
	}
	return n
}

// interleave runs fn inside the first UPDATE issued against table, on the
// same transaction, to simulate a concurrent writer committing first.
func interleave(t *testing.T, db *gorm.DB, table, stmt string) {
	t.Helper()
	fired := false
	name := "test:interleave:" + uuid.NewString()
	err := db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, stmt); err != nil {
			t.Errorf("interleaved write: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	t.Cleanup(func() { _ = db.Callback().Update().Remove(name) })
}

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }
