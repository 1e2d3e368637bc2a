package sessions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/products"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/kv"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

// StorageFactory returns the snapshot storage for one user.
type StorageFactory func(owner string) (kv.Storage, error)

type productLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error)
}

// CartResult is a cart state plus the notices the operation raised.
type CartResult struct {
	Cart    cart.State    `json:"cart"`
	Notices []cart.Notice `json:"-"`
}

// CartService serves per-user carts. Operations for one user are serialized
// within this process.
type CartService struct {
	storage  StorageFactory
	products productLookup
	metrics  cart.ActionRecorder
	logg     *logger.Logger
	locks    *userLocks
}

func NewCartService(storage StorageFactory, catalog productLookup, metrics cart.ActionRecorder, logg *logger.Logger) (*CartService, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage factory required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &CartService{
		storage:  storage,
		products: catalog,
		metrics:  metrics,
		logg:     logg,
		locks:    newUserLocks(),
	}, nil
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (cart.State, error) {
	unlock := s.locks.lock(userID.String())
	defer unlock()
	store, _, err := s.open(ctx, userID)
	if err != nil {
		return cart.State{}, err
	}
	return store.Snapshot(), nil
}

// Add puts one unit of the product in the cart at its current sale price.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID) (CartResult, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return CartResult{}, err
	}
	if !product.InStock {
		return CartResult{}, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock").
			WithDetails(map[string]any{"productId": product.ID})
	}
	return s.mutate(ctx, userID, func(store *cart.Store) (cart.State, error) {
		return store.Add(ctx, cart.Product{
			ID:       product.ID.String(),
			Name:     product.Name,
			Price:    product.SalePrice,
			ImageRef: product.ImageURL,
		})
	})
}

func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID) (CartResult, error) {
	return s.mutate(ctx, userID, func(store *cart.Store) (cart.State, error) {
		return store.Remove(ctx, productID.String())
	})
}

func (s *CartService) Delete(ctx context.Context, userID, productID uuid.UUID) (CartResult, error) {
	return s.mutate(ctx, userID, func(store *cart.Store) (cart.State, error) {
		return store.Delete(ctx, productID.String())
	})
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (CartResult, error) {
	return s.mutate(ctx, userID, func(store *cart.Store) (cart.State, error) {
		return store.Clear(ctx)
	})
}

// RemoveOrdered takes the ordered quantities off the user's cart. Lines
// added or topped up after the order was built stay behind.
func (s *CartService) RemoveOrdered(ctx context.Context, userID uuid.UUID, ordered cart.State) (CartResult, error) {
	return s.mutate(ctx, userID, func(store *cart.Store) (cart.State, error) {
		state := store.Snapshot()
		for _, line := range ordered.Items {
			current, ok := state.Find(line.ProductID)
			if !ok {
				continue
			}
			if current.Quantity <= line.Quantity {
				next, err := store.Delete(ctx, line.ProductID)
				if err != nil {
					return state, err
				}
				state = next
				continue
			}
			for range line.Quantity {
				next, err := store.Remove(ctx, line.ProductID)
				if err != nil {
					return state, err
				}
				state = next
			}
		}
		return state, nil
	})
}

func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, fn func(*cart.Store) (cart.State, error)) (CartResult, error) {
	unlock := s.locks.lock(userID.String())
	defer unlock()

	store, notices, err := s.open(ctx, userID)
	if err != nil {
		return CartResult{}, err
	}
	state, err := fn(store)
	if err != nil {
		return CartResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return CartResult{Cart: state, Notices: notices.drain()}, nil
}

func (s *CartService) open(ctx context.Context, userID uuid.UUID) (*cart.Store, *collector, error) {
	if userID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	storage, err := s.storage(userID.String())
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open cart storage")
	}
	notices := &collector{}
	store := cart.NewStore(ctx, storage, cart.Options{
		Notifier: notices,
		Logger:   s.logg,
		Metrics:  s.metrics,
	})
	return store, notices, nil
}
