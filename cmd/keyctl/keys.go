package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/services"
)

func mintCmd(a *app) *cobra.Command {
	var (
		itemID string
		ct     string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint access keys for a unit variant and print the tokens",
		Example: `  keyctl mint --item bio-01 --type note
  keyctl mint --item bio-01 --type assignment --count 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.db()
			if err != nil {
				return err
			}
			keys, err := services.NewAccessKeyService(db).MintBatch(cmd.Context(), itemID, domain.ContentType(ct), count)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k.Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "unit id")
	cmd.Flags().StringVar(&ct, "type", "", "content type: note|assignment")
	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("number of keys (max %d)", services.MaxMintBatch))
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func listKeysCmd(a *app) *cobra.Command {
	var (
		itemID string
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list-keys",
		Short: "List access keys, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.db()
			if err != nil {
				return err
			}
			keys, err := services.NewAccessKeyService(db).ListKeys(cmd.Context(), itemID, domain.KeyStatus(status), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tITEM\tTYPE\tSTATUS\tBOUND TO\tBOUND AT")
			for _, k := range keys {
				boundTo, boundAt := "-", "-"
				if k.BoundTo != nil {
					boundTo = *k.BoundTo
				}
				if k.BoundAt != nil {
					boundAt = k.BoundAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", k.Key, k.ItemID, k.ContentType, k.Status, boundTo, boundAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "filter by unit id")
	cmd.Flags().StringVar(&status, "status", "", "filter by status: available|bound")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum rows")
	return cmd
}
