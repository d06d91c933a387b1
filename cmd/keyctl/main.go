// Command keyctl is the administrator's tool for the delivery store: it
// mints and audits access keys, confirms order payments and seeds the unit
// catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/config"
	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/storage"
	"github.com/tbourn/studyvault/internal/sysutil"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// objectStore is the part of the blob store the catalog commands need.
type objectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Stat(ctx context.Context, key string) (int64, error)
}

// app carries connection settings shared by every subcommand.
type app struct {
	cfg      config.Config
	driver   string
	dbPath   string
	dbURL    string
	openDB   func(a *app) (*gorm.DB, error)
	openBlob func(ctx context.Context, a *app) (objectStore, error)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a := &app{cfg: cfg, openDB: openDatabase, openBlob: openBlobStore}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "keyctl",
		Short:         "Administer access keys, orders and the unit catalog",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.driver, "db-driver", "", "database driver: sqlite|postgres (default DB_DRIVER)")
	root.PersistentFlags().StringVar(&a.dbPath, "db-path", "", "sqlite file (default DB_PATH)")
	root.PersistentFlags().StringVar(&a.dbURL, "database-url", "", "postgres DSN (default DATABASE_URL)")

	root.AddCommand(mintCmd(a))
	root.AddCommand(listKeysCmd(a))
	root.AddCommand(completeOrderCmd(a))
	root.AddCommand(seedUnitCmd(a))
	root.AddCommand(checkUnitCmd(a))
	return root
}

// db opens and migrates the configured database. Flags win over the
// environment.
func (a *app) db() (*gorm.DB, error) {
	db, err := a.openDB(a)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func openDatabase(a *app) (*gorm.DB, error) {
	return repo.Open(
		sysutil.FirstNonEmpty(a.driver, a.cfg.DB.Driver),
		sysutil.FirstNonEmpty(a.dbPath, a.cfg.DB.Path),
		sysutil.FirstNonEmpty(a.dbURL, a.cfg.DB.URL),
		false,
	)
}

func openBlobStore(ctx context.Context, a *app) (objectStore, error) {
	return storage.NewMinioStore(ctx, storage.Options{
		Endpoint:  a.cfg.Blob.Endpoint,
		AccessKey: a.cfg.Blob.AccessKey,
		SecretKey: a.cfg.Blob.SecretKey,
		Bucket:    a.cfg.Blob.Bucket,
		Region:    a.cfg.Blob.Region,
		UseSSL:    a.cfg.Blob.UseSSL,
	})
}
