package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/matheusmosca/grocery-inventory/internal/client"
)

func newTransactionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx", "t"},
		Short:   "Record and list stock transactions",
	}
	cmd.AddCommand(
		newTransactionsListCmd(opts),
		newApplyCmd(opts, "purchase", "Record a purchase (adds stock)"),
		newApplyCmd(opts, "sale", "Record a sale (removes stock)"),
	)
	return cmd
}

func newTransactionsListCmd(opts *rootOptions) *cobra.Command {
	var productID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			var (
				txs []client.Transaction
				err error
			)
			if productID > 0 {
				txs, err = c.ListProductTransactions(cmd.Context(), productID)
			} else {
				txs, err = c.ListTransactions(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTransactions(txs))
			return nil
		},
	}
	cmd.Flags().Int64Var(&productID, "product", 0, "only show transactions of this product id")
	return cmd
}

func newApplyCmd(opts *rootOptions, kind, short string) *cobra.Command {
	var (
		unitPrice, note string
	)

	cmd := &cobra.Command{
		Use:   kind + " PRODUCT_ID QUANTITY",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			price, err := decimal.NewFromString(unitPrice)
			if err != nil {
				return fmt.Errorf("invalid unit price %q: %w", unitPrice, err)
			}

			in := client.ApplyTransaction{
				ProductID: id,
				Type:      kind,
				Quantity:  qty,
				UnitPrice: price,
			}
			if cmd.Flags().Changed("note") {
				in.Note = &note
			}

			tx, err := opts.client().ApplyTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTransactions([]client.Transaction{*tx}))
			return nil
		},
	}
	cmd.Flags().StringVar(&unitPrice, "unit-price", "0", "unit price, e.g. 1.25")
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	return cmd
}
