package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

var PaymentStatuses = []string{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

type User struct {
	ID                  uint       `gorm:"primaryKey"                      json:"id"`
	Email               string     `gorm:"size:255;uniqueIndex;not null"   json:"email"`
	PasswordHash        string     `gorm:"not null"                        json:"-"`
	FirstName           string     `gorm:"size:100;not null"               json:"firstName"`
	LastName            string     `gorm:"size:100;not null"               json:"lastName"`
	Phone               string     `gorm:"size:32"                         json:"phone"`
	Role                string     `gorm:"size:16;not null;index"          json:"role"`
	IsActive            bool       `gorm:"not null"                        json:"isActive"`
	FailedLoginAttempts int        `gorm:"not null"                        json:"-"`
	LockedUntil         *time.Time `                                       json:"-"`
	LastLoginAt         *time.Time `                                       json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `                                       json:"createdAt"`
	UpdatedAt           time.Time  `                                       json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Address struct {
	ID         uint      `gorm:"primaryKey"               json:"id"`
	UserID     uint      `gorm:"index;not null"           json:"userId"`
	FullName   string    `gorm:"size:200;not null"        json:"fullName"`
	Phone      string    `gorm:"size:32"                  json:"phone"`
	Street     string    `gorm:"size:255;not null"        json:"street"`
	City       string    `gorm:"size:100;not null"        json:"city"`
	State      string    `gorm:"size:100"                 json:"state"`
	PostalCode string    `gorm:"size:20;not null"         json:"postalCode"`
	Country    string    `gorm:"size:100;not null"        json:"country"`
	IsDefault  bool      `gorm:"not null"                 json:"isDefault"`
	CreatedAt  time.Time `                                json:"createdAt"`
	UpdatedAt  time.Time `                                json:"updatedAt"`
}

// SizeStock maps a size label to the units on hand.
type SizeStock = datatypes.JSONType[map[string]int]

type Product struct {
	ID             uint                `gorm:"primaryKey"                  json:"id"`
	Name           string              `gorm:"size:255;not null"           json:"name"`
	Slug           string              `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	SKU            string              `gorm:"column:sku;size:64;uniqueIndex;not null" json:"sku"`
	Description    string              `gorm:"type:text"                   json:"description"`
	Price          decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	CompareAtPrice decimal.NullDecimal `gorm:"type:decimal(10,2)"          json:"compareAtPrice"`
	Stock          int                 `gorm:"not null;index"              json:"stock"`
	SizeStock      SizeStock           `gorm:"not null"                    json:"sizeStock"`
	Image          string              `gorm:"size:512"                    json:"image"`
	IsActive       bool                `gorm:"not null;index"              json:"isActive"`
	IsFeatured     bool                `gorm:"not null"                    json:"isFeatured"`
	Categories     []Category          `gorm:"many2many:product_categories;"  json:"categories,omitempty"`
	Collections    []Collection        `gorm:"many2many:product_collections;" json:"collections,omitempty"`
	CreatedAt      time.Time           `                                   json:"createdAt"`
	UpdatedAt      time.Time           `                                   json:"updatedAt"`
}

// Sizes returns the sizes the product is sold in; empty for unsized products.
func (p *Product) Sizes() map[string]int {
	return p.SizeStock.Data()
}

// Available reports the sellable quantity for a size. Unsized products use Stock.
func (p *Product) Available(size string) int {
	sizes := p.Sizes()
	if len(sizes) == 0 {
		return p.Stock
	}
	return sizes[size]
}

// BeforeSave keeps Stock equal to the per-size total when sizes exist.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	sizes := p.Sizes()
	if sizes == nil {
		p.SizeStock = datatypes.NewJSONType(map[string]int{})
		return nil
	}
	if len(sizes) > 0 {
		total := 0
		for _, n := range sizes {
			total += n
		}
		p.Stock = total
	}
	return nil
}

type Category struct {
	ID           uint      `gorm:"primaryKey"                    json:"id"`
	Name         string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug         string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text"                     json:"description"`
	Image        string    `gorm:"size:512"                      json:"image"`
	Products     []Product `gorm:"many2many:product_categories;" json:"products,omitempty"`
	ProductCount int64     `gorm:"-"                             json:"productCount"`
	CreatedAt    time.Time `                                     json:"createdAt"`
	UpdatedAt    time.Time `                                     json:"updatedAt"`
}

type Collection struct {
	ID           uint      `gorm:"primaryKey"                     json:"id"`
	Name         string    `gorm:"size:100;uniqueIndex;not null"  json:"name"`
	Slug         string    `gorm:"size:120;uniqueIndex;not null"  json:"slug"`
	Description  string    `gorm:"type:text"                      json:"description"`
	Image        string    `gorm:"size:512"                       json:"image"`
	IsFeatured   bool      `gorm:"not null"                       json:"isFeatured"`
	Products     []Product `gorm:"many2many:product_collections;" json:"products,omitempty"`
	ProductCount int64     `gorm:"-"                              json:"productCount"`
	CreatedAt    time.Time `                                      json:"createdAt"`
	UpdatedAt    time.Time `                                      json:"updatedAt"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_line"        json:"userId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_line"        json:"productId"`
	Size      string    `gorm:"size:16;not null;uniqueIndex:idx_cart_line" json:"size"`
	Quantity  int       `gorm:"not null"                                  json:"quantity"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE"               json:"product"`
	CreatedAt time.Time `                                                 json:"createdAt"`
	UpdatedAt time.Time `                                                 json:"updatedAt"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                             json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_line" json:"userId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_line" json:"productId"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE"            json:"product"`
	CreatedAt time.Time `                                              json:"createdAt"`
}

// ShippingAddress is the address snapshot stored on an order.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Order struct {
	ID              uint                                `gorm:"primaryKey"                  json:"id"`
	OrderNumber     string                              `gorm:"size:40;uniqueIndex;not null" json:"orderNumber"`
	UserID          uint                                `gorm:"index;not null"              json:"userId"`
	User            *User                               `                                   json:"user,omitempty"`
	Status          string                              `gorm:"size:16;not null;index"      json:"status"`
	PaymentStatus   string                              `gorm:"size:16;not null"            json:"paymentStatus"`
	PaymentMethod   string                              `gorm:"size:32"                     json:"paymentMethod"`
	Subtotal        decimal.Decimal                     `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	ShippingCost    decimal.Decimal                     `gorm:"type:decimal(10,2);not null" json:"shippingCost"`
	Total           decimal.Decimal                     `gorm:"type:decimal(10,2);not null" json:"total"`
	ShippingAddress datatypes.JSONType[ShippingAddress] `gorm:"not null"                    json:"shippingAddress"`
	Notes           string                              `gorm:"type:text"                   json:"notes"`
	Items           []OrderItem                         `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time                           `                                   json:"createdAt"`
	UpdatedAt       time.Time                           `                                   json:"updatedAt"`
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey"                  json:"id"`
	OrderID     uint            `gorm:"index;not null"              json:"orderId"`
	ProductID   uint            `gorm:"index;not null"              json:"productId"`
	ProductName string          `gorm:"size:255;not null"           json:"productName"`
	SKU         string          `gorm:"column:sku;size:64"          json:"sku"`
	Size        string          `gorm:"size:16"                     json:"size"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null"                    json:"quantity"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"column:jti;size:64;uniqueIndex;not null" json:"jti"`
	UserID    uint      `gorm:"index;not null"         json:"userId"`
	ExpiresAt int64     `gorm:"not null"               json:"expiresAt"`
	Revoked   bool      `gorm:"not null"               json:"revoked"`
	CreatedAt time.Time `                           json:"createdAt"`
}

func All() []any {
	return []any{
		&User{},
		&Address{},
		&Category{},
		&Collection{},
		&Product{},
		&CartItem{},
		&WishlistItem{},
		&Order{},
		&OrderItem{},
		&RefreshToken{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
