package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/matheusmosca/grocery-inventory/internal/client"
)

func newProductsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Manage the product catalog",
	}
	cmd.AddCommand(
		newProductsListCmd(opts),
		newProductsCreateCmd(opts),
		newProductsUpdateCmd(opts),
		newProductsDeleteCmd(opts),
	)
	return cmd
}

func newProductsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := opts.client().ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProducts(products))
			return nil
		},
	}
}

func newProductsCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		category, description, price string
		stock                        int
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := client.CreateProduct{Name: args[0], Stock: &stock}
			if price != "" {
				p, err := decimal.NewFromString(price)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", price, err)
				}
				in.Price = &p
			}
			if cmd.Flags().Changed("category") {
				in.Category = &category
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}

			product, err := opts.client().CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProducts([]client.Product{*product}))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "product category")
	cmd.Flags().StringVar(&description, "description", "", "free-text description")
	cmd.Flags().StringVar(&price, "price", "", "unit price, e.g. 2.50")
	cmd.Flags().IntVar(&stock, "stock", 0, "initial stock")
	return cmd
}

func newProductsUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		name, category, description, price string
		stock                              int
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update product fields; --stock overrides stock without a ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var in client.UpdateProduct
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &name
			}
			if flags.Changed("category") {
				in.Category = &category
			}
			if flags.Changed("description") {
				in.Description = &description
			}
			if flags.Changed("stock") {
				in.Stock = &stock
			}
			if flags.Changed("price") {
				p, err := decimal.NewFromString(price)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", price, err)
				}
				in.Price = &p
			}

			product, err := opts.client().UpdateProduct(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProducts([]client.Product{*product}))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&price, "price", "", "new price")
	cmd.Flags().IntVar(&stock, "stock", 0, "new stock level")
	return cmd
}

func newProductsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product and all of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("deleted product %d", id)))
			return nil
		},
	}
}
