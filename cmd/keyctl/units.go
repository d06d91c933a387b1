package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/storage"
	"github.com/tbourn/studyvault/internal/watermark"
)

func seedUnitCmd(a *app) *cobra.Command {
	var (
		file      string
		uploadDir string
	)
	cmd := &cobra.Command{
		Use:   "seed-unit",
		Short: "Insert a unit and its files into the catalog",
		Long: `Insert a unit described by a JSON file:

  {"id": "bio-01", "name": "Cells", "category": "biology",
   "files": [{"language": "en", "content_type": "note", "part": 1,
              "path": "notes/bio-01/en.pdf"}]}

With --upload-dir each raw object path is read from that directory,
checked to be a readable PDF and uploaded to the bucket first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := readUnit(file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if uploadDir != "" {
				store, err := a.openBlob(ctx, a)
				if err != nil {
					return fmt.Errorf("open blob store: %w", err)
				}
				for _, f := range u.Files {
					if err := uploadFile(cmd, store, uploadDir, f.Path); err != nil {
						return err
					}
				}
			}
			db, err := a.db()
			if err != nil {
				return err
			}
			if err := repo.SeedUnit(ctx, db, u); err != nil {
				return fmt.Errorf("seed unit %s: %w", u.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unit %s seeded with %d file(s)\n", u.ID, len(u.Files))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "unit JSON file")
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "", "directory holding the PDFs to upload")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readUnit decodes and checks a unit description, filling file IDs.
func readUnit(path string) (*domain.Unit, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var u domain.Unit
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if u.ID == "" || u.Name == "" {
		return nil, errors.New("unit id and name are required")
	}
	if len(u.Files) == 0 {
		return nil, errors.New("unit has no files")
	}
	for i := range u.Files {
		f := &u.Files[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.UnitID = u.ID
		if f.Part == 0 {
			f.Part = 1
		}
		if !f.ContentType.Valid() {
			return nil, fmt.Errorf("file %d: content_type must be note or assignment", i)
		}
		if f.Language == "" || f.Path == "" {
			return nil, fmt.Errorf("file %d: language and path are required", i)
		}
	}
	return &u, nil
}

func uploadFile(cmd *cobra.Command, store objectStore, dir, ref string) error {
	key, err := storage.ObjectKeyFromRef(ref, store.Bucket())
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	src, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		return err
	}
	pages, err := watermark.PageCount(src)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := store.Put(cmd.Context(), key, bytes.NewReader(src), int64(len(src)), "application/pdf"); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d pages)\n", key, pages)
	return nil
}

func checkUnitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-unit <unitId>",
		Short: "Verify every file of a unit resolves to a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.db()
			if err != nil {
				return err
			}
			if _, err := repo.GetUnit(ctx, db, args[0]); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("unit %s not found", args[0])
				}
				return err
			}
			store, err := a.openBlob(ctx, a)
			if err != nil {
				return fmt.Errorf("open blob store: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tLANG\tPART\tKEY\tSTATUS")
			missing := 0
			for _, ct := range []domain.ContentType{domain.ContentNote, domain.ContentAssignment} {
				files, err := repo.ListUnitFiles(ctx, db, args[0], ct, "")
				if err != nil {
					return err
				}
				for _, f := range files {
					status := "ok"
					key, err := storage.ObjectKeyFromRef(f.Path, store.Bucket())
					if err == nil {
						var size int64
						size, err = store.Stat(ctx, key)
						if err == nil {
							status = fmt.Sprintf("ok (%d bytes)", size)
						}
					}
					if err != nil {
						status = err.Error()
						missing++
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", ct, f.Language, f.Part, key, status)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if missing > 0 {
				return fmt.Errorf("%d file(s) unresolved", missing)
			}
			return nil
		},
	}
}
