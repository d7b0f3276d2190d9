package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"koselimart/internal/checkout"
	"koselimart/internal/config"
	"koselimart/internal/database"
	"koselimart/internal/handlers"
	"koselimart/internal/middleware"
	"koselimart/internal/payment"
	"koselimart/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)
	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	checkoutSvc := checkout.NewService(
		store.NewMongoProducts(db),
		store.NewMongoCarts(db),
		store.NewMongoOrders(db),
		gateway,
		store.NewMongoTxnRunner(client),
	)

	for _, provider := range cfg.OAuthProviders {
		log.Println("oauth provider configured:", provider.Name)
	}

	r := gin.Default()

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register(db, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
		auth.POST("/login", handlers.Login(db, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
		auth.POST("/refresh", handlers.Refresh(db, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
		auth.POST("/logout", handlers.Logout(db))
		auth.GET("/me", middleware.Authenticate(cfg.JWTSecret), handlers.GetMe(db))
	}

	api.GET("/products", handlers.GetProducts(db))
	api.GET("/products/featured", handlers.GetFeaturedProducts(db))
	api.GET("/products/:slug", handlers.GetProductBySlug(db))
	api.GET("/categories", handlers.GetCategories(db))

	cart := api.Group("/cart")
	cart.Use(middleware.Authenticate(cfg.JWTSecret))
	{
		cart.GET("", handlers.GetCart(db))
		cart.GET("/count", handlers.GetCartCount(db))
		cart.POST("/add", handlers.AddToCart(db))
		cart.POST("/merge", handlers.MergeCart(db))
		cart.PUT("/update/:productId", handlers.UpdateCartItem(db))
		cart.DELETE("/remove/:productId", handlers.RemoveCartItem(db))
		cart.DELETE("/clear", handlers.ClearCart(db))
	}

	stripeGroup := api.Group("/stripe")
	{
		stripeGroup.POST("/webhook", handlers.StripeWebhook(checkoutSvc, gateway))

		authed := stripeGroup.Group("")
		authed.Use(middleware.Authenticate(cfg.JWTSecret))
		{
			authed.POST("/create-payment-intent", handlers.CreatePaymentIntent(checkoutSvc))
			authed.POST("/confirm-payment", handlers.ConfirmPayment(checkoutSvc))
			authed.GET("/payment-methods", handlers.GetPaymentMethods())
		}
	}

	orders := api.Group("/orders")
	orders.Use(middleware.Authenticate(cfg.JWTSecret))
	{
		orders.GET("", handlers.GetUserOrders(db))
		orders.GET("/admin/all", middleware.RequireAdmin(), handlers.AdminGetOrders(db))
		orders.GET("/:orderId", handlers.GetOrder(db))
		orders.PATCH("/:orderId/cancel", handlers.CancelOrder(db))
		orders.PATCH("/:orderId/status", middleware.RequireAdmin(), handlers.AdminUpdateOrderStatus(db))
		orders.PATCH("/:orderId/tracking", middleware.RequireAdmin(), handlers.AdminUpdateOrderTracking(db))
	}

	users := api.Group("/users")
	users.Use(middleware.Authenticate(cfg.JWTSecret))
	{
		users.GET("/addresses", handlers.GetUserAddresses(db))
		users.POST("/addresses", handlers.CreateUserAddress(db))
		users.PUT("/addresses/:addressId", handlers.UpdateUserAddress(db))
		users.DELETE("/addresses/:addressId", handlers.DeleteUserAddress(db))
		users.GET("/wishlist", handlers.GetWishlist(db))
		users.POST("/wishlist", handlers.AddToWishlist(db))
		users.DELETE("/wishlist/:productId", handlers.RemoveFromWishlist(db))
	}

	admin := api.Group("")
	admin.Use(middleware.Authenticate(cfg.JWTSecret), middleware.RequireAdmin())
	{
		admin.GET("/products/admin/all", handlers.AdminGetProducts(db))
		admin.POST("/products", handlers.AdminCreateProduct(db))
		admin.PUT("/products/:productId", handlers.AdminUpdateProduct(db))
		admin.DELETE("/products/:productId", handlers.AdminArchiveProduct(db))

		admin.POST("/categories", handlers.AdminCreateCategory(db))
		admin.PUT("/categories/:categoryId", handlers.AdminUpdateCategory(db))
		admin.DELETE("/categories/:categoryId", handlers.AdminDeleteCategory(db))
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
