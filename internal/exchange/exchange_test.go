package exchange

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/pkg/db/dbtest"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

func TestEstimate(t *testing.T) {
	cases := []struct {
		productType enums.ProductCategory
		condition   enums.ExchangeCondition
		age         int
		want        int64
	}{
		{enums.ProductCategoryUPSHome, enums.ExchangeConditionExcellent, 0, 2125},
		{enums.ProductCategoryUPSOffice, enums.ExchangeConditionGood, 2, 2240},
		{enums.ProductCategoryInverter, enums.ExchangeConditionFair, 3, 700},
		{enums.ProductCategoryBatteryBackup, enums.ExchangeConditionPoor, 1, 405},
		{enums.ProductCategoryAccessories, enums.ExchangeConditionGood, 0, 700},
		{enums.ProductCategoryUPSHome, "Broken", 0, 1000},
		// depreciation caps at 80%
		{enums.ProductCategoryUPSOffice, enums.ExchangeConditionExcellent, 20, 680},
		{enums.ProductCategoryUPSOffice, enums.ExchangeConditionExcellent, 8, 680},
	}
	for _, tc := range cases {
		got := Estimate(tc.productType, tc.condition, tc.age)
		if got.IntPart() != tc.want {
			t.Fatalf("Estimate(%s, %s, %d) = %s, want %d", tc.productType, tc.condition, tc.age, got, tc.want)
		}
	}
}

func newTestService(t *testing.T) (Service, *outbox.Repository) {
	t.Helper()
	client := dbtest.NewSQLite(t)
	outboxRepo := outbox.NewRepository(client.DB())
	svc, err := NewService(NewRepository(client.DB()), client, outbox.NewService(outboxRepo, logger.Nop()))
	require.NoError(t, err)
	return svc, outboxRepo
}

func TestCreateRecomputesEstimate(t *testing.T) {
	svc, outboxRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, CreateInput{
		Name:        "Meera",
		Email:       "Meera@Example.com",
		Phone:       "9876543210",
		OldUPSModel: "Volt 600",
		ProductType: enums.ProductCategoryUPSHome,
		Condition:   enums.ExchangeConditionGood,
		AgeYears:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1400), created.EstimatedValue.IntPart())
	assert.Equal(t, "meera@example.com", created.Email)
	require.NotNil(t, created.UserID)

	events, err := outboxRepo.FetchUnpublished(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventExchangeRequested, events[0].EventType)

	page, err := svc.List(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:        "Meera",
		ProductType: "Toaster",
		Condition:   enums.ExchangeConditionGood,
		AgeYears:    -1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	problems, _ := typed.Details().([]string)
	assert.Contains(t, problems, "email is required")
	assert.Contains(t, problems, "productType is invalid")
}

func TestEstimateRejectsNegativeAge(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Estimate(context.Background(), EstimateInput{ProductType: enums.ProductCategoryUPSHome, Condition: enums.ExchangeConditionGood, AgeYears: -2})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
