package httpserver

import (
	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
)

type Deps struct {
	AuthHandler       *AuthHTTP
	UserHandler       *UserHTTP
	ProductHandler    *ProductHTTP
	CategoryHandler   *CategoryHTTP
	CollectionHandler *CollectionHTTP
	CartHandler       *CartHTTP
	WishlistHandler   *WishlistHTTP
	OrderHandler      *OrderHTTP
	AdminHandler      *AdminHTTP
	HealthHandler     *HealthHTTP

	Auth *authmw.Middleware
	// RateLimit returns the limiter for a route name; nil disables limiting.
	RateLimit func(route string) echo.MiddlewareFunc
	// CSRF is applied to every /api route when set.
	CSRF echo.MiddlewareFunc

	UploadDir string
}

func (d *Deps) limit(route string) []echo.MiddlewareFunc {
	if d.RateLimit == nil {
		return nil
	}
	return []echo.MiddlewareFunc{d.RateLimit(route)}
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	if d.UploadDir != "" {
		e.Static(uploadsPrefix, d.UploadDir)
	}

	api := e.Group("/api")
	if d.CSRF != nil {
		api.Use(d.CSRF)
	}
	api.GET("/health", d.HealthHandler.Health)

	requireAuth := d.Auth.RequireAuth
	admin := []echo.MiddlewareFunc{requireAuth, authmw.RequireAdmin}

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register, d.limit("register")...)
	auth.POST("/login", d.AuthHandler.Login, d.limit("login")...)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, requireAuth)
	auth.PUT("/change-password", d.AuthHandler.ChangePassword, requireAuth)

	users := api.Group("/users", requireAuth)
	users.GET("/profile", d.UserHandler.GetProfile)
	users.PUT("/profile", d.UserHandler.UpdateProfile)
	users.GET("/addresses", d.UserHandler.ListAddresses)
	users.POST("/addresses", d.UserHandler.CreateAddress)
	users.PUT("/addresses/:id", d.UserHandler.UpdateAddress)
	users.PUT("/addresses/:id/default", d.UserHandler.SetDefaultAddress)
	users.DELETE("/addresses/:id", d.UserHandler.DeleteAddress)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts, d.Auth.Optional)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.GET("/export", d.ProductHandler.ExportProducts, admin...)
	products.POST("/import", d.ProductHandler.ImportProducts, admin...)
	products.GET("/:id", d.ProductHandler.GetProduct, d.Auth.Optional)
	products.POST("", d.ProductHandler.CreateProduct, admin...)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, admin...)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, admin...)
	products.POST("/:id/image", d.ProductHandler.UploadImage, admin...)

	categories := api.Group("/categories")
	categories.GET("", d.CategoryHandler.List)
	categories.GET("/:slug", d.CategoryHandler.Get)
	categories.POST("", d.CategoryHandler.Create, admin...)
	categories.PUT("/:id", d.CategoryHandler.Update, admin...)
	categories.DELETE("/:id", d.CategoryHandler.Delete, admin...)

	collections := api.Group("/collections")
	collections.GET("", d.CollectionHandler.List)
	collections.GET("/:slug", d.CollectionHandler.Get)
	collections.POST("", d.CollectionHandler.Create, admin...)
	collections.PUT("/:id", d.CollectionHandler.Update, admin...)
	collections.DELETE("/:id", d.CollectionHandler.Delete, admin...)
	collections.POST("/:id/products", d.CollectionHandler.AddProducts, admin...)
	collections.DELETE("/:id/products/:productId", d.CollectionHandler.RemoveProduct, admin...)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.PUT("/:itemId", d.CartHandler.UpdateItem)
	cart.DELETE("/:itemId", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.Clear)

	wishlist := api.Group("/wishlist", requireAuth)
	wishlist.GET("", d.WishlistHandler.List)
	wishlist.POST("", d.WishlistHandler.Add)
	wishlist.GET("/check/:productId", d.WishlistHandler.Check)
	wishlist.DELETE("/:productId", d.WishlistHandler.Remove)
	wishlist.POST("/:productId/move-to-cart", d.WishlistHandler.MoveToCart)

	orders := api.Group("/orders", requireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/cancel", d.OrderHandler.CancelOrder)

	adm := api.Group("/admin", admin...)
	adm.GET("/dashboard", d.AdminHandler.Dashboard)
	adm.GET("/users", d.AdminHandler.ListUsers)
	adm.GET("/users/:id", d.AdminHandler.GetUser)
	adm.PUT("/users/:id", d.AdminHandler.UpdateUser)
	adm.DELETE("/users/:id", d.AdminHandler.DeleteUser)
	adm.GET("/orders", d.AdminHandler.ListOrders)
	adm.PUT("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	adm.DELETE("/orders/:id", d.AdminHandler.DeleteOrder)
}
