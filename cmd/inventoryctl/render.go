package main

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matheusmosca/grocery-inventory/internal/client"
)

var (
	accent = lipgloss.Color("#D97706")
	dim    = lipgloss.Color("#6B7280")
	green  = lipgloss.Color("#22C55E")
	red    = lipgloss.Color("#EF4444")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	successStyle  = lipgloss.NewStyle().Foreground(green)
	saleStyle     = cellStyle.Foreground(red)
	purchaseStyle = cellStyle.Foreground(green)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(dim)).
		Headers(headers...)
}

func renderProducts(products []client.Product) string {
	t := newTable("ID", "NAME", "CATEGORY", "PRICE", "STOCK", "UPDATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, p := range products {
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Name,
			deref(p.Category),
			p.Price.StringFixed(2),
			strconv.Itoa(p.Stock),
			p.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}
	return t.String()
}

func renderTransactions(txs []client.Transaction) string {
	t := newTable("ID", "PRODUCT", "TYPE", "QTY", "UNIT PRICE", "NOTE", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 2 && row >= 0 && row < len(txs) && txs[row].Type == "sale":
				return saleStyle
			case col == 2:
				return purchaseStyle
			}
			return cellStyle
		})
	for _, tx := range txs {
		t.Row(
			strconv.FormatInt(tx.ID, 10),
			tx.ProductName,
			tx.Type,
			strconv.Itoa(tx.Quantity),
			tx.UnitPrice.StringFixed(2),
			deref(tx.Note),
			tx.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	return t.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
