package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/checkout"
)

type checkoutFlags struct {
	shipping    checkout.ShippingInfo
	payment     checkout.PaymentInfo
	withPayment bool
	noPrompt    bool
}

func newCheckoutCmd(a *app) *cobra.Command {
	var flags checkoutFlags
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Check out the local cart",
		Long: "Walks the checkout steps for the local cart. Fields not given as flags " +
			"are prompted for; the cart is cleared once the order is placed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			includePayment := a.settings.IncludePayment
			if cmd.Flags().Changed("with-payment") {
				includePayment = flags.withPayment
			}
			return runCheckout(cmd, a, flags, includePayment)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.shipping.FirstName, "first-name", "", "shipping first name")
	f.StringVar(&flags.shipping.LastName, "last-name", "", "shipping last name")
	f.StringVar(&flags.shipping.Email, "email", "", "contact email")
	f.StringVar(&flags.shipping.Address, "address", "", "street address")
	f.StringVar(&flags.shipping.City, "city", "", "city")
	f.StringVar(&flags.shipping.State, "state", "", "state (optional)")
	f.StringVar(&flags.shipping.ZipCode, "zip", "", "zip code")
	f.StringVar(&flags.payment.CardNumber, "card-number", "", "card number")
	f.StringVar(&flags.payment.NameOnCard, "name-on-card", "", "name on card")
	f.StringVar(&flags.payment.Expiry, "expiry", "", "card expiry (MM/YY)")
	f.StringVar(&flags.payment.CVV, "cvv", "", "card CVV")
	f.BoolVar(&flags.withPayment, "with-payment", false, "collect card details (three-step checkout)")
	f.BoolVar(&flags.noPrompt, "no-prompt", false, "fail instead of prompting for missing fields")
	return cmd
}

func runCheckout(cmd *cobra.Command, a *app, flags checkoutFlags, includePayment bool) error {
	ctx := cmd.Context()
	s, err := a.session(ctx)
	if err != nil {
		return err
	}

	store := a.cart(ctx)
	wf, err := checkout.New(checkout.Params{
		Steps:      checkout.StepsFor(includePayment),
		Cart:       store,
		Placer:     a.api,
		Credential: s.AccessToken,
		Navigator:  a.navigator(),
		Notifier:   a.notifier,
	})
	if err != nil {
		return err
	}
	defer wf.Close()

	if err := wf.Begin(); err != nil {
		return err
	}

	shipping, payment := flags.shipping, flags.payment
	if err := wf.SetShipping(shipping); err != nil {
		return err
	}
	if err := wf.SetPayment(payment); err != nil {
		return err
	}

	for wf.State().StepName != checkout.StepReview {
		err := wf.Advance()
		var missing *checkout.ValidationError
		if !errors.As(err, &missing) {
			if err != nil {
				return err
			}
			continue
		}
		if flags.noPrompt {
			return err
		}
		if !promptMissing(a.in, missing, &shipping, &payment) {
			return err
		}
		if err := wf.SetShipping(shipping); err != nil {
			return err
		}
		if err := wf.SetPayment(payment); err != nil {
			return err
		}
	}

	printReview(a, wf.State(), store.Snapshot())
	placed, err := wf.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s placed, total %s\n", placed.OrderID, money(placed.TotalPrice))
	return nil
}

// promptMissing asks for every field named by the validation error and
// reports false once input runs out.
func promptMissing(p *prompter, missing *checkout.ValidationError, shipping *checkout.ShippingInfo, payment *checkout.PaymentInfo) bool {
	fields := shippingFields(shipping)
	if missing.Step == checkout.StepPayment {
		fields = paymentFields(payment)
	}
	for _, name := range missing.Fields {
		target, ok := fields[name]
		if !ok {
			continue
		}
		answer, ok := p.ask(fieldLabels[name])
		if !ok {
			return false
		}
		*target = answer
	}
	return true
}

func shippingFields(s *checkout.ShippingInfo) map[string]*string {
	return map[string]*string{
		"firstName": &s.FirstName,
		"lastName":  &s.LastName,
		"email":     &s.Email,
		"address":   &s.Address,
		"city":      &s.City,
		"zipCode":   &s.ZipCode,
	}
}

func paymentFields(p *checkout.PaymentInfo) map[string]*string {
	return map[string]*string{
		"cardNumber": &p.CardNumber,
		"nameOnCard": &p.NameOnCard,
		"expiry":     &p.Expiry,
		"cvv":        &p.CVV,
	}
}

var fieldLabels = map[string]string{
	"firstName":  "First name",
	"lastName":   "Last name",
	"email":      "Email",
	"address":    "Address",
	"city":       "City",
	"zipCode":    "Zip code",
	"cardNumber": "Card number",
	"nameOnCard": "Name on card",
	"expiry":     "Expiry (MM/YY)",
	"cvv":        "CVV",
}

func printReview(a *app, snap checkout.Snapshot, state cart.State) {
	fmt.Fprintln(a.out, titleStyle.Render(fmt.Sprintf("Review (step %d of %d)", snap.Step, len(snap.Steps))))
	for _, item := range state.Items {
		fmt.Fprintf(a.out, "  %d × %s  %s\n", item.Quantity, item.Name, money(item.Subtotal()))
	}
	ship := snap.Form.Shipping
	fmt.Fprintf(a.out, "Ship to: %s %s, %s, %s %s\n", ship.FirstName, ship.LastName, ship.Address, ship.City, ship.ZipCode)
	if snap.Form.Payment.CardNumber != "" {
		fmt.Fprintf(a.out, "Card: %s\n", snap.Form.Payment.CardNumber)
	} else {
		fmt.Fprintln(a.out, "Payment: "+checkout.PaymentCashOnDelivery)
	}
	fmt.Fprintf(a.out, "Total: %s\n", money(state.TotalPrice))
}
