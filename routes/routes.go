package routes

import (
	"net/http"

	"pawmart/adoption"
	"pawmart/auth"
	"pawmart/cart"
	"pawmart/consultations"
	"pawmart/live"
	"pawmart/middleware"
	"pawmart/orders"
	"pawmart/pets"
	"pawmart/products"
	"pawmart/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/uploads/petpic/*filepath", http.Dir("uploads/petpic"))
	router.ServeFiles("/uploads/productpic/*filepath", http.Dir("uploads/productpic"))
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(h.Register))
	router.POST("/api/auth/login", rl.Limit(h.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(h.Logout))
	router.POST("/api/auth/token/refresh", rl.Limit(h.RefreshToken))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/cart", rl.Limit(middleware.Authenticate(h.AddToCart)))
	router.GET("/api/cart", middleware.Authenticate(h.GetCart))
	router.DELETE("/api/cart", rl.Limit(middleware.Authenticate(h.RemoveFromCart)))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/orders", rl.Limit(middleware.Authenticate(h.PlaceOrder)))
	router.GET("/api/orders", middleware.Authenticate(h.GetOrders))
	router.PUT("/api/orders/:id/status", middleware.Authenticate(middleware.RequireRole(h.UpdateOrderStatus, "admin")))
	router.DELETE("/api/orders/:id", rl.Limit(middleware.Authenticate(h.CancelOrder)))
	router.GET("/api/orders/:id/invoice", middleware.Authenticate(h.GetInvoice))
	router.GET("/api/orders/:id/qr", middleware.Authenticate(h.GetPickupQR))
}

func AddPetRoutes(router *httprouter.Router, h *pets.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/pets", rl.Limit(middleware.Authenticate(h.CreatePet)))
	router.GET("/api/pets", middleware.OptionalAuth(h.GetPets))
	router.GET("/api/pets/:id", middleware.OptionalAuth(h.GetPet))
	router.PUT("/api/pets/:id", rl.Limit(middleware.Authenticate(h.UpdatePet)))
	router.DELETE("/api/pets/:id", middleware.Authenticate(middleware.RequireRole(h.DeletePet, "admin")))
}

func AddProductRoutes(router *httprouter.Router, h *products.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/products", rl.Limit(middleware.Authenticate(middleware.RequireRole(h.CreateProduct, "admin"))))
	router.GET("/api/products", middleware.OptionalAuth(h.GetProducts))
	router.GET("/api/products/:id", middleware.OptionalAuth(h.GetProduct))
	router.PUT("/api/products/:id", middleware.Authenticate(middleware.RequireRole(h.UpdateProduct, "admin")))
	router.DELETE("/api/products/:id", middleware.Authenticate(middleware.RequireRole(h.DeleteProduct, "admin")))
}

func AddAdoptionRoutes(router *httprouter.Router, h *adoption.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/adoptions", rl.Limit(middleware.Authenticate(h.CreateRequest)))
	router.GET("/api/adoptions", middleware.Authenticate(middleware.RequireRole(h.ListRequests, "admin")))
	router.PUT("/api/adoptions/:id", middleware.Authenticate(middleware.RequireRole(h.ResolveRequest, "admin")))
}

func AddConsultationRoutes(router *httprouter.Router, h *consultations.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/consultations", rl.Limit(middleware.Authenticate(h.CreateConsultation)))
	router.GET("/api/consultations", middleware.Authenticate(h.GetConsultations))
	router.PUT("/api/consultations/:id/status", middleware.Authenticate(middleware.RequireRole(h.UpdateConsultationStatus, "admin", "vet")))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/ws/events", hub.ServeWS)
}
