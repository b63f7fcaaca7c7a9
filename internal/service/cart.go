package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type CartView struct {
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func (s *CartService) Get(ctx context.Context, userID uint) (*CartView, error) {
	items, err := s.Repo.ListCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: items, Subtotal: decimal.Zero}
	if view.Items == nil {
		view.Items = []models.CartItem{}
	}
	for _, it := range items {
		view.ItemCount += it.Quantity
		view.Subtotal = view.Subtotal.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return view, nil
}

// sellableSize checks the product can be bought in the given size and returns the normalized label.
func sellableSize(p *models.Product, size string) (string, error) {
	if !p.IsActive {
		return "", fail(ErrValidation, "product %q is not available", p.Name)
	}
	size = strings.TrimSpace(size)
	sizes := p.Sizes()
	if len(sizes) == 0 {
		return "", nil
	}
	if size == "" {
		return "", fail(ErrValidation, "size is required for %q", p.Name)
	}
	if _, ok := sizes[size]; !ok {
		return "", fail(ErrValidation, "size %s is not available for %q", size, p.Name)
	}
	return size, nil
}

func checkStock(p *models.Product, size string, want int) error {
	if avail := p.Available(size); want > avail {
		if size != "" {
			return fail(ErrInsufficientStock, "only %d of %q in size %s left in stock", avail, p.Name, size)
		}
		return fail(ErrInsufficientStock, "only %d of %q left in stock", avail, p.Name)
	}
	return nil
}

func (s *CartService) Add(ctx context.Context, userID, productID uint, qty int, size string) (*CartView, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, fail(ErrValidation, "quantity must be positive")
	}
	if productID == 0 {
		return nil, fail(ErrValidation, "productId is required")
	}

	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return notFound(err, "product")
		}
		size, err := sellableSize(p, size)
		if err != nil {
			return err
		}

		line, err := tx.FindCartLine(ctx, userID, productID, size)
		if err != nil && !isNotFound(err) {
			return err
		}
		if line != nil {
			total := line.Quantity + qty
			if err := checkStock(p, size, total); err != nil {
				return err
			}
			return tx.SetCartQuantity(ctx, line.ID, total)
		}

		if err := checkStock(p, size, qty); err != nil {
			return err
		}
		return tx.CreateCartItem(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Size:      size,
			Quantity:  qty,
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, userID, "cart_item_added", map[string]any{
		"productId": productID, "quantity": qty, "size": size,
	})
	return s.Get(ctx, userID)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uint, qty int) (*CartView, error) {
	item, err := s.Repo.GetCartItem(ctx, userID, itemID)
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	if qty <= 0 {
		return s.Remove(ctx, userID, itemID)
	}
	if err := checkStock(&item.Product, item.Size, qty); err != nil {
		return nil, err
	}
	if err := s.Repo.SetCartQuantity(ctx, item.ID, qty); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) (*CartView, error) {
	if err := s.Repo.DeleteCartItem(ctx, userID, itemID); err != nil {
		return nil, notFound(err, "cart item")
	}
	publish(ctx, s.Events, events.TopicCart, userID, "cart_item_removed", map[string]any{"itemId": itemID})
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, userID, "cart_cleared", nil)
	return nil
}
