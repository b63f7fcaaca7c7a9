package service

import (
	"context"

	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
)

type WishlistService struct {
	Repo *repo.GormRepo
	Cart *CartService
}

func (s *WishlistService) List(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	items, err := s.Repo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.WishlistItem{}
	}
	return items, nil
}

func (s *WishlistService) Add(ctx context.Context, userID, productID uint) (*models.WishlistItem, error) {
	if productID == 0 {
		return nil, fail(ErrValidation, "productId is required")
	}
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	exists, err := s.Repo.InWishlist(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fail(ErrConflict, "product is already in wishlist")
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.Repo.AddWishlistItem(ctx, item); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "product is already in wishlist")
		}
		return nil, err
	}
	item.Product = *p
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	if err := s.Repo.RemoveWishlistItem(ctx, userID, productID); err != nil {
		return notFound(err, "wishlist item")
	}
	return nil
}

func (s *WishlistService) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	return s.Repo.InWishlist(ctx, userID, productID)
}

// MoveToCart adds one unit to the cart and drops the wishlist entry.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, productID uint, size string) (*CartView, error) {
	in, err := s.Repo.InWishlist(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, fail(ErrNotFound, "product is not in wishlist")
	}
	view, err := s.Cart.Add(ctx, userID, productID, 1, size)
	if err != nil {
		return nil, err
	}
	if err := s.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return view, nil
}
