package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/services"
)

func completeOrderCmd(a *app) *cobra.Command {
	var processing bool
	cmd := &cobra.Command{
		Use:   "complete-order <orderId>",
		Short: "Record manual payment confirmation for an order",
		Long: `Move an order to "completed" once payment was confirmed out of band.
With --processing the order is only marked as under review.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db()
			if err != nil {
				return err
			}
			svc := services.NewOrderService(db, repo.OrderStore{})
			mark := svc.MarkCompleted
			if processing {
				mark = svc.MarkProcessing
			}
			o, err := mark(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s is now %s\n", o.ID, o.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&processing, "processing", false, "mark as processing instead of completed")
	return cmd
}
