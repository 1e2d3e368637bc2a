package checkout

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ShippingInfo is the delivery address collected on the Shipping step.
type ShippingInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode" validate:"required"`
}

// PaymentInfo is collected by the three-step variant. It is checked for
// presence only and never leaves the workflow except as the last four
// digits of the card number.
type PaymentInfo struct {
	CardNumber string `json:"cardNumber" validate:"required"`
	NameOnCard string `json:"nameOnCard" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
}

// Last4 returns the trailing four digits of the card number, if any.
func (p PaymentInfo) Last4() string {
	digits := make([]rune, 0, len(p.CardNumber))
	for _, r := range p.CardNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}

// FormData accumulates every field the steps collect.
type FormData struct {
	Shipping ShippingInfo `json:"shipping"`
	Payment  PaymentInfo  `json:"payment"`
}

func (f FormData) masked() FormData {
	out := f
	if last4 := f.Payment.Last4(); last4 != "" {
		out.Payment.CardNumber = "**** " + last4
	} else if out.Payment.CardNumber != "" {
		out.Payment.CardNumber = "****"
	}
	if out.Payment.CVV != "" {
		out.Payment.CVV = "***"
	}
	return out
}

func trimShipping(s ShippingInfo) ShippingInfo {
	return ShippingInfo{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		State:     strings.TrimSpace(s.State),
		ZipCode:   strings.TrimSpace(s.ZipCode),
	}
}

func trimPayment(p PaymentInfo) PaymentInfo {
	return PaymentInfo{
		CardNumber: strings.TrimSpace(p.CardNumber),
		NameOnCard: strings.TrimSpace(p.NameOnCard),
		Expiry:     strings.TrimSpace(p.Expiry),
		CVV:        strings.TrimSpace(p.CVV),
	}
}

var presence = newPresenceValidator()

func newPresenceValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// missingFields returns the json names of the required fields left blank
// in section, in declaration order.
func missingFields(section any) []string {
	err := presence.Struct(section)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
