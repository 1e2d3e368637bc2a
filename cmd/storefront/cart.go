package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/luxemarket/storefront-backend/internal/cart"
)

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show cart contents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				printCart(a, a.cart(cmd.Context()).Snapshot())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := a.api.GetProduct(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state, err := a.cart(cmd.Context()).Add(cmd.Context(), cart.Product{
					ID:       p.ID.String(),
					Name:     p.Name,
					Price:    p.SalePrice,
					ImageRef: p.ImageURL,
				})
				if err != nil {
					return err
				}
				printTotals(a, state)
				return nil
			},
		},
		cartLineCmd(a, "remove", "Remove one unit of a product", (*cart.Store).Remove),
		cartLineCmd(a, "delete", "Delete a product line regardless of quantity", (*cart.Store).Delete),
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := a.cart(cmd.Context()).Clear(cmd.Context())
				return err
			},
		},
	)
	return cmd
}

type lineOp func(s *cart.Store, ctx context.Context, productID string) (cart.State, error)

func cartLineCmd(a *app, use, short string, op lineOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <product-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := op(a.cart(cmd.Context()), cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTotals(a, state)
			return nil
		},
	}
}

func printCart(a *app, state cart.State) {
	if state.IsEmpty() {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PRODUCT", "NAME", "QTY", "UNIT", "SUBTOTAL")
	for _, item := range state.Items {
		t.Row(item.ProductID, item.Name, strconv.Itoa(item.Quantity), money(item.UnitPrice), money(item.Subtotal()))
	}
	fmt.Fprintln(a.out, t.String())
	printTotals(a, state)
}

func printTotals(a *app, state cart.State) {
	fmt.Fprintf(a.out, "%s %d item(s), total %s\n", titleStyle.Render("Cart:"), state.TotalItems, money(state.TotalPrice))
}
