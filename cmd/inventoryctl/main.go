package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheusmosca/grocery-inventory/internal/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	baseURL string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.baseURL, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Manage products and stock transactions of the inventory service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	defaultURL := os.Getenv("INVENTORY_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", defaultURL, "inventory API base URL (env INVENTORY_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(newProductsCmd(opts))
	cmd.AddCommand(newTransactionsCmd(opts))
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
