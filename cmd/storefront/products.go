package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/pkg/storeapi"
)

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}
	cmd.AddCommand(newProductsListCmd(a), newProductsShowCmd(a))
	return cmd
}

func newProductsListCmd(a *app) *cobra.Command {
	var (
		q                  storeapi.ProductQuery
		minPrice, maxPrice string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if q.MinPrice, err = parsePrice("min-price", minPrice); err != nil {
				return err
			}
			if q.MaxPrice, err = parsePrice("max-price", maxPrice); err != nil {
				return err
			}

			page, err := a.api.ListProducts(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				fmt.Fprintln(a.out, "No products match.")
				return nil
			}
			fmt.Fprintln(a.out, productTable(page.Items))
			if page.NextCursor != "" {
				fmt.Fprintln(a.out, mutedStyle.Render("more: --cursor "+page.NextCursor))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Query, "search", "q", "", "search product names")
	f.StringVar(&q.Category, "category", "", "category, e.g. \"UPS - Home\"")
	f.StringVar(&minPrice, "min-price", "", "minimum price")
	f.StringVar(&maxPrice, "max-price", "", "maximum price")
	f.BoolVar(&q.InStock, "in-stock", false, "only products with stock")
	f.IntVar(&q.Limit, "limit", 0, "page size")
	f.StringVar(&q.Cursor, "cursor", "", "cursor from a previous page")
	return cmd
}

func newProductsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product and related items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, productDetail(p))

			related, err := a.api.RelatedProducts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(related) > 0 {
				fmt.Fprintln(a.out, titleStyle.Render("Related"))
				fmt.Fprintln(a.out, productTable(related))
			}
			return nil
		},
	}
}

func parsePrice(flag, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("--%s must be a non-negative number", flag)
	}
	return &d, nil
}

func productTable(items []products.ProductDTO) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "CATEGORY", "PRICE", "STOCK")
	for _, p := range items {
		t.Row(p.ID.String(), p.Name, string(p.Category), priceLabel(p), stockLabel(p))
	}
	return t.String()
}

func productDetail(p products.ProductDTO) string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(p.Name))
	fmt.Fprintf(&b, "%s · %s\n", p.Category, stockLabel(p))
	fmt.Fprintf(&b, "Price: %s\n", priceLabel(p))
	if p.ReviewCount > 0 {
		fmt.Fprintf(&b, "Rating: %.1f (%d reviews)\n", p.Rating, p.ReviewCount)
	}
	if p.Description != "" {
		fmt.Fprintln(&b, p.Description)
	}
	for _, f := range p.Features {
		fmt.Fprintf(&b, "  • %s\n", f)
	}
	if len(p.Colors) > 0 {
		fmt.Fprintf(&b, "Colors: %s\n", strings.Join(p.Colors, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func priceLabel(p products.ProductDTO) string {
	if p.Discount > 0 {
		return fmt.Sprintf("%s (was %s, -%d%%)", money(p.SalePrice), money(p.Price), p.Discount)
	}
	return money(p.Price)
}

func stockLabel(p products.ProductDTO) string {
	if !p.InStock {
		return "out of stock"
	}
	return fmt.Sprintf("%d in stock", p.Stock)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
