package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxemarket/storefront-backend/internal/exchange"
	"github.com/luxemarket/storefront-backend/internal/sizing"
	"github.com/luxemarket/storefront-backend/pkg/enums"
)

func newExchangeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Trade in an old unit",
	}

	var in struct {
		productType string
		condition   string
		age         int
	}
	estimate := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the trade-in value of an old unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.api.EstimateExchange(cmd.Context(), exchange.EstimateInput{
				ProductType: enums.ProductCategory(in.productType),
				Condition:   enums.ExchangeCondition(in.condition),
				AgeYears:    in.age,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", titleStyle.Render("Estimated value:"), money(result.EstimatedValue))
			return nil
		},
	}
	estimate.Flags().StringVar(&in.productType, "type", string(enums.ProductCategoryUPSHome), "product type of the old unit")
	estimate.Flags().StringVar(&in.condition, "condition", string(enums.ExchangeConditionGood), "Excellent, Good, Fair or Poor")
	estimate.Flags().IntVar(&in.age, "age", 0, "age in years")

	cmd.AddCommand(estimate)
	return cmd
}

func newUPSCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ups",
		Short: "UPS sizing tools",
	}

	var in sizing.Input
	recommend := &cobra.Command{
		Use:   "recommend",
		Short: "Size a battery for a load and backup time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.api.RecommendUPS(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Energy needed: %.0f Wh\n", rec.WattHours)
			fmt.Fprintf(a.out, "Battery: %d Ah at %dV\n", rec.BatteryAh, rec.Voltage)
			return nil
		},
	}
	recommend.Flags().Float64Var(&in.LoadWatts, "load", 0, "connected load in watts")
	recommend.Flags().Float64Var(&in.BackupHours, "hours", 0, "required backup in hours")

	cmd.AddCommand(recommend)
	return cmd
}
