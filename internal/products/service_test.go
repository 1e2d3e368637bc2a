package products

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/pkg/db/dbtest"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func mustCreate(t *testing.T, svc Service, name string, category enums.ProductCategory, price string, stock int) *ProductDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), ProductInput{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Stock:    stock,
		Features: []string{"Pure sine wave"},
	})
	require.NoError(t, err)
	return dto
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), ProductInput{
		Name:        "  Apex 1500VA  ",
		Description: "Line-interactive UPS",
		Price:       decimal.RequireFromString("149.99"),
		Category:    enums.ProductCategoryUPSHome,
		Rating:      4.5,
		Stock:       7,
		Discount:    10,
		Colors:      []string{"Black"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Apex 1500VA", created.Name)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("149.99")))
	assert.True(t, got.SalePrice.Equal(decimal.RequireFromString("134.99")), got.SalePrice.String())
	assert.Equal(t, []string{"Black"}, got.Colors)
	assert.Equal(t, []string{}, got.Features)
	assert.True(t, got.InStock)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), ProductInput{
		Price:    decimal.NewFromInt(-1),
		Category: "Toasters",
		Discount: 120,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().([]string)
	require.True(t, ok)
	assert.Len(t, details, 4)
}

func TestGetMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.Delete(context.Background(), uuid.New()), pkgerrors.CodeNotFound))
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		mustCreate(t, svc, fmt.Sprintf("Home UPS %d", i), enums.ProductCategoryUPSHome, fmt.Sprintf("%d00", i+1), i)
	}
	mustCreate(t, svc, "Tubular Battery", enums.ProductCategoryBatteryBackup, "250", 3)

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		cat := enums.ProductCategoryUPSHome
		page, err := svc.List(context.Background(), ListInput{
			Filter: ListFilter{Category: &cat},
			Params: pagination.Params{Limit: 2, Cursor: cursor},
		})
		require.NoError(t, err)
		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "duplicate across pages")
			seen[item.ID] = true
			assert.Equal(t, enums.ProductCategoryUPSHome, item.Category)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, seen, 5)

	minPrice, maxPrice := decimal.NewFromInt(200), decimal.NewFromInt(300)
	page, err := svc.List(context.Background(), ListInput{Filter: ListFilter{MinPrice: &minPrice, MaxPrice: &maxPrice, InStock: true}})
	require.NoError(t, err)
	names := []string{}
	for _, item := range page.Items {
		names = append(names, item.Name)
	}
	assert.ElementsMatch(t, []string{"Home UPS 1", "Home UPS 2", "Tubular Battery"}, names)

	page, err = svc.List(context.Background(), ListInput{Filter: ListFilter{Query: "tubular"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = svc.List(context.Background(), ListInput{Filter: ListFilter{MinPrice: &maxPrice, MaxPrice: &minPrice}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.List(context.Background(), ListInput{Params: pagination.Params{Cursor: "!!"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRelatedExcludesSelfAndCaps(t *testing.T) {
	svc, _ := newTestService(t)
	base := mustCreate(t, svc, "Inverter 0", enums.ProductCategoryInverter, "500", 1)
	for i := 1; i <= 5; i++ {
		mustCreate(t, svc, fmt.Sprintf("Inverter %d", i), enums.ProductCategoryInverter, "500", 1)
	}
	mustCreate(t, svc, "Cable", enums.ProductCategoryAccessories, "5", 1)

	related, err := svc.Related(context.Background(), base.ID)
	require.NoError(t, err)
	assert.Len(t, related, relatedLimit)
	for _, p := range related {
		assert.NotEqual(t, base.ID, p.ID)
		assert.Equal(t, enums.ProductCategoryInverter, p.Category)
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreate(t, svc, "Office UPS", enums.ProductCategoryUPSOffice, "900", 2)

	stock := 0
	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Office UPS", updated.Name)
	assert.False(t, updated.InStock)

	bad := 101
	_, err = svc.Update(context.Background(), p.ID, UpdateInput{Discount: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecrementStockNeverOversells(t *testing.T) {
	svc, repo := newTestService(t)
	p := mustCreate(t, svc, "Last units", enums.ProductCategoryUPSHome, "100", 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DecrementStock(context.Background(), p.ID, 1)
			if err == nil && ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, taken)
	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}
