package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
)

// CheckoutPlacer lets a server-side checkout workflow submit through the
// orders service. The workflow credential is the caller's user id.
type CheckoutPlacer struct {
	svc Service
}

func NewCheckoutPlacer(svc Service) *CheckoutPlacer {
	return &CheckoutPlacer{svc: svc}
}

func (p *CheckoutPlacer) PlaceOrder(ctx context.Context, sub checkout.OrderSubmission, credential string) (checkout.PlacedOrder, error) {
	userID, err := uuid.Parse(credential)
	if err != nil {
		return checkout.PlacedOrder{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req, err := RequestFromSubmission(sub)
	if err != nil {
		return checkout.PlacedOrder{}, err
	}
	order, err := p.svc.Place(ctx, Actor{UserID: userID, Role: enums.RoleUser}, req)
	if err != nil {
		return checkout.PlacedOrder{}, err
	}
	return checkout.PlacedOrder{
		OrderID:    order.ID.String(),
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
	}, nil
}

// RequestFromSubmission converts a checkout submission into a placement request.
func RequestFromSubmission(sub checkout.OrderSubmission) (PlaceOrderRequest, error) {
	items := make([]ItemInput, 0, len(sub.Items))
	for _, line := range sub.Items {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return PlaceOrderRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, ItemInput{
			ProductID: id,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
			ImageURL:  line.ImageURL,
		})
	}
	ship := sub.ShippingInfo
	return PlaceOrderRequest{
		Items: items,
		ShippingInfo: ShippingInput{
			FirstName: ship.FirstName,
			LastName:  ship.LastName,
			Email:     ship.Email,
			Address:   ship.Address,
			City:      ship.City,
			State:     ship.State,
			ZipCode:   ship.ZipCode,
		},
		PaymentInfo: PaymentInput{
			Method:    sub.PaymentInfo.Method,
			CardLast4: sub.PaymentInfo.CardLast4,
		},
		TotalPrice: sub.TotalPrice,
	}, nil
}
