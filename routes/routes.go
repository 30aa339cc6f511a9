package routes

import (
	"net/http"

	"emporia/admin"
	"emporia/auth"
	"emporia/cart"
	"emporia/checkout"
	"emporia/middleware"
	"emporia/orders"
	"emporia/products"
	"emporia/profile"
	"emporia/ratelim"
	"emporia/reviews"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router, mediaDir string) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(mediaDir))
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(h.Register))
	router.POST("/api/auth/login", rl.Limit(h.Login))
	router.POST("/api/auth/oauth", rl.Limit(h.OAuth))
	router.POST("/api/auth/logout", h.Logout)
}

func AddProductRoutes(router *httprouter.Router, h *products.Handler, mw *middleware.Auth) {
	router.POST("/api/products", mw.RequireAdmin(h.Create))
	router.GET("/api/products", h.List)
	router.GET("/api/products/category/:category", h.ByCategory)
	router.GET("/api/product/:productid", h.Get)
	router.DELETE("/api/product/:productid", mw.RequireAdmin(h.Delete))
}

func AddReviewRoutes(router *httprouter.Router, h *reviews.Handler, mw *middleware.Auth) {
	router.GET("/api/product/:productid/reviews", h.List)
	router.POST("/api/product/:productid/reviews", mw.Authenticate(h.Add))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handler, mw *middleware.Auth) {
	router.POST("/api/cart", mw.Authenticate(h.Add))
	router.GET("/api/cart", mw.Authenticate(h.List))
	router.PUT("/api/cart/:cartid", mw.Authenticate(h.UpdateQuantity))
	router.DELETE("/api/cart/:cartid", mw.Authenticate(h.Remove))
}

func AddCheckoutRoutes(router *httprouter.Router, h *checkout.Handler, mw *middleware.Auth, rl *ratelim.RateLimiter) {
	router.POST("/api/checkout", rl.Limit(mw.Authenticate(h.Checkout)))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler, mw *middleware.Auth) {
	router.GET("/api/orders", mw.Authenticate(h.List))
	router.GET("/api/orders/:orderid/invoice", mw.Authenticate(h.Invoice))
}

func AddProfileRoutes(router *httprouter.Router, h *profile.Handler, mw *middleware.Auth) {
	router.GET("/api/profile", mw.Authenticate(h.Get))
	router.POST("/api/profile", mw.Authenticate(h.Update))
}

func AddAdminRoutes(router *httprouter.Router, h *admin.Handler, mw *middleware.Auth) {
	router.GET("/api/admin/orders", mw.RequireAdmin(h.ListOrders))
	router.PUT("/api/admin/orders", mw.RequireAdmin(h.UpdateOrderStatus))
	router.DELETE("/api/admin/orders", mw.RequireAdmin(h.DeleteOrder))
	router.GET("/api/admin/stats", mw.RequireAdmin(h.GetStats))
	router.GET("/api/admin/orders/live", mw.RequireAdmin(h.LiveOrders))
}
