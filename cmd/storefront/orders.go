package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order history",
	}

	var (
		limit  int
		cursor string
	)
	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			page, err := a.api.MyOrders(cmd.Context(), s.AccessToken, limit, cursor)
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				fmt.Fprintln(a.out, "No orders yet.")
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ORDER", "PLACED", "ITEMS", "TOTAL", "STATUS")
			for _, o := range page.Items {
				count := 0
				for _, item := range o.Items {
					count += item.Quantity
				}
				t.Row(o.ID.String(), o.CreatedAt.Format("2006-01-02 15:04"), fmt.Sprint(count), money(o.TotalPrice), string(o.Status))
			}
			fmt.Fprintln(a.out, t.String())
			if page.NextCursor != "" {
				fmt.Fprintln(a.out, mutedStyle.Render("more: --cursor "+page.NextCursor))
			}
			return nil
		},
	}
	mine.Flags().IntVar(&limit, "limit", 0, "page size")
	mine.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page")

	cmd.AddCommand(mine)
	return cmd
}
