package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type OrderService struct {
	Repo                  *repo.GormRepo
	Events                events.Publisher
	FreeShippingThreshold decimal.Decimal
	ShippingFlatRate      decimal.Decimal
	Now                   func() time.Time
}

type CreateOrderInput struct {
	AddressID       *uint                   `json:"addressId"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
	Notes           string                  `json:"notes"`
}

var allowedTransitions = map[string][]string{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ShippingFor is free at or above the threshold and flat otherwise.
func (s *OrderService) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.FreeShippingThreshold) {
		return decimal.Zero
	}
	return s.ShippingFlatRate
}

func (s *OrderService) newOrderNumber(ctx context.Context, tx *repo.GormRepo) (string, error) {
	for i := 0; i < 5; i++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		number := fmt.Sprintf("ORD-%s-%s", s.now().UTC().Format("20060102"), suffix)
		exists, err := tx.OrderNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number")
}

func (s *OrderService) resolveAddress(ctx context.Context, tx *repo.GormRepo, userID uint, in CreateOrderInput) (models.ShippingAddress, error) {
	if in.AddressID != nil {
		a, err := tx.GetAddress(ctx, userID, *in.AddressID)
		if err != nil {
			return models.ShippingAddress{}, notFound(err, "address")
		}
		return snapshotAddress(a), nil
	}
	if in.ShippingAddress != nil {
		a := models.Address{
			FullName:   strings.TrimSpace(in.ShippingAddress.FullName),
			Phone:      strings.TrimSpace(in.ShippingAddress.Phone),
			Street:     strings.TrimSpace(in.ShippingAddress.Street),
			City:       strings.TrimSpace(in.ShippingAddress.City),
			State:      strings.TrimSpace(in.ShippingAddress.State),
			PostalCode: strings.TrimSpace(in.ShippingAddress.PostalCode),
			Country:    strings.TrimSpace(in.ShippingAddress.Country),
		}
		if err := validateAddress(&a); err != nil {
			return models.ShippingAddress{}, err
		}
		return snapshotAddress(&a), nil
	}

	addrs, err := tx.ListAddresses(ctx, userID)
	if err != nil {
		return models.ShippingAddress{}, err
	}
	for i := range addrs {
		if addrs[i].IsDefault {
			return snapshotAddress(&addrs[i]), nil
		}
	}
	return models.ShippingAddress{}, fail(ErrValidation, "a shipping address is required")
}

func snapshotAddress(a *models.Address) models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// adjustStock adds delta units to the product, per size when it is sized.
func adjustStock(p *models.Product, size string, delta int) {
	sizes := p.Sizes()
	if len(sizes) == 0 {
		p.Stock += delta
		return
	}
	next := make(map[string]int, len(sizes))
	for k, v := range sizes {
		next[k] = v
	}
	next[size] += delta
	p.SizeStock = datatypes.NewJSONType(next)
}

// Create turns the user's cart into an order in a single transaction.
func (s *OrderService) Create(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", userID)

	var order *models.Order
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.ListCart(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return fail(ErrValidation, "cart is empty")
		}

		addr, err := s.resolveAddress(ctx, tx, userID, in)
		if err != nil {
			return err
		}

		// lock in id order so concurrent checkouts cannot deadlock
		sort.Slice(cart, func(i, j int) bool {
			if cart[i].ProductID == cart[j].ProductID {
				return cart[i].Size < cart[j].Size
			}
			return cart[i].ProductID < cart[j].ProductID
		})

		locked := map[uint]*models.Product{}
		items := make([]models.OrderItem, 0, len(cart))
		subtotal := decimal.Zero
		for _, line := range cart {
			p, ok := locked[line.ProductID]
			if !ok {
				p, err = tx.LockProduct(ctx, line.ProductID)
				if err != nil {
					return notFound(err, "product")
				}
				locked[p.ID] = p
			}
			if _, err := sellableSize(p, line.Size); err != nil {
				return err
			}
			if err := checkStock(p, line.Size, line.Quantity); err != nil {
				return err
			}
			adjustStock(p, line.Size, -line.Quantity)

			lineTotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				SKU:         p.SKU,
				Size:        line.Size,
				Price:       p.Price,
				Quantity:    line.Quantity,
				Total:       lineTotal,
			})
		}

		for _, p := range locked {
			if err := tx.SaveProduct(ctx, p); err != nil {
				return err
			}
		}

		number, err := s.newOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		method := strings.TrimSpace(in.PaymentMethod)
		if method == "" {
			method = "cash_on_delivery"
		}
		shipping := s.ShippingFor(subtotal)
		order = &models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Status:          models.OrderPending,
			PaymentStatus:   models.PaymentPending,
			PaymentMethod:   method,
			Subtotal:        subtotal,
			ShippingCost:    shipping,
			Total:           subtotal.Add(shipping),
			ShippingAddress: datatypes.NewJSONType(addr),
			Notes:           strings.TrimSpace(in.Notes),
			Items:           items,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrder, order.ID, "order_created", map[string]any{
		"orderNumber": order.OrderNumber,
		"userId":      userID,
		"total":       order.Total.StringFixed(2),
	})
	l.Info("order_created", "order_id", order.ID, "order_number", order.OrderNumber)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, f repo.OrderFilter, page, limit int) (*Paged[models.Order], error) {
	if f.Status != "" && !contains(models.OrderStatuses, f.Status) {
		return nil, fail(ErrValidation, "unknown order status %q", f.Status)
	}
	page, limit = util.Normalize(page, limit)
	offset, limit := util.Calculate(page, limit)
	total, orders, err := s.Repo.ListOrders(ctx, f, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &Paged[models.Order]{Items: orders, Pagination: util.NewPagination(page, limit, total)}, nil
}

// Get returns the order if it belongs to userID or the caller is an admin.
func (s *OrderService) Get(ctx context.Context, userID uint, isAdmin bool, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != userID && !isAdmin {
		return nil, fail(ErrNotFound, "order not found")
	}
	if !isAdmin {
		o.User = nil
	}
	return o, nil
}

func (s *OrderService) restock(ctx context.Context, tx *repo.GormRepo, o *models.Order) error {
	items := append([]models.OrderItem(nil), o.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	locked := map[uint]*models.Product{}
	for _, it := range items {
		p, ok := locked[it.ProductID]
		if !ok {
			var err error
			p, err = tx.LockProduct(ctx, it.ProductID)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			locked[p.ID] = p
		}
		adjustStock(p, it.Size, it.Quantity)
	}
	for _, p := range locked {
		if err := tx.SaveProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Cancel lets the owner cancel a pending or processing order and puts the stock back.
func (s *OrderService) Cancel(ctx context.Context, userID uint, isAdmin bool, id uint) (*models.Order, error) {
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if o.UserID != userID && !isAdmin {
			return fail(ErrNotFound, "order not found")
		}
		if o.Status != models.OrderPending && o.Status != models.OrderProcessing {
			return fail(ErrValidation, "order cannot be cancelled once it is %s", o.Status)
		}
		return s.cancelLocked(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicOrder, id, "order_cancelled", nil)
	return s.Get(ctx, userID, isAdmin, id)
}

func (s *OrderService) cancelLocked(ctx context.Context, tx *repo.GormRepo, o *models.Order) error {
	if err := s.restock(ctx, tx, o); err != nil {
		return err
	}
	fields := map[string]any{"status": models.OrderCancelled}
	if o.PaymentStatus == models.PaymentPaid {
		fields["payment_status"] = models.PaymentRefunded
	}
	return tx.UpdateOrder(ctx, o.ID, fields)
}

type StatusInput struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// UpdateStatus is the admin path: statuses move along allowedTransitions only.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, in StatusInput) (*models.Order, error) {
	if in.Status == "" && in.PaymentStatus == "" {
		return nil, fail(ErrValidation, "status or paymentStatus is required")
	}
	if in.Status != "" && !contains(models.OrderStatuses, in.Status) {
		return nil, fail(ErrValidation, "invalid status %q, expected one of %s", in.Status, strings.Join(models.OrderStatuses, ", "))
	}
	if in.PaymentStatus != "" && !contains(models.PaymentStatuses, in.PaymentStatus) {
		return nil, fail(ErrValidation, "invalid paymentStatus %q, expected one of %s", in.PaymentStatus, strings.Join(models.PaymentStatuses, ", "))
	}

	var from string
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		from = o.Status

		if in.Status != "" && in.Status != o.Status {
			if !contains(allowedTransitions[o.Status], in.Status) {
				return fail(ErrValidation, "cannot change order status from %s to %s", o.Status, in.Status)
			}
			if in.Status == models.OrderCancelled {
				if err := s.cancelLocked(ctx, tx, o); err != nil {
					return err
				}
			} else if err := tx.UpdateOrder(ctx, id, map[string]any{"status": in.Status}); err != nil {
				return err
			}
		}
		if in.PaymentStatus != "" {
			return tx.UpdateOrder(ctx, id, map[string]any{"payment_status": in.PaymentStatus})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrder, id, "order_status_changed", map[string]any{
		"from": from, "to": in.Status, "paymentStatus": in.PaymentStatus,
	})
	return s.Repo.GetOrder(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order")
	}
	publish(ctx, s.Events, events.TopicOrder, id, "order_deleted", nil)
	return nil
}
