package routes

import (
	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/handlers/admin"
	"gamevault_back_end/internal/handlers/store"
	"gamevault_back_end/internal/handlers/user"
	"gamevault_back_end/internal/handlers/wallet"
	"gamevault_back_end/internal/middleware"
	"gamevault_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Assemblage du moteur de règlement sur les dépôts Scylla et le panier Redis.
	var (
		catalogRepo  repository.CatalogRepo
		discountRepo repository.DiscountRepo
		walletRepo   repository.WalletRepo
		libraryRepo  repository.LibraryRepo
		purchaseRepo repository.PurchaseRepo
	)

	carts := checkout.NewCartStore(database.Redis, libraryRepo)
	engine := checkout.NewEngine(catalogRepo, discountRepo, walletRepo, libraryRepo, purchaseRepo, carts)
	eval := checkout.NewEvaluator(discountRepo)

	store.Init(carts, engine, eval, walletRepo)

	api := r.Group("/api")

	// ---------- Routes publiques ----------
	api.POST("/auth/register", middleware.RegisterRateLimit(), user.Register)
	api.POST("/auth/login", middleware.LoginRateLimit(), user.Login)
	api.GET("/auth/:provider", user.BeginAuth)
	api.GET("/auth/:provider/url", user.AuthURL)
	api.GET("/auth/:provider/callback", user.CallbackAuth)

	api.GET("/games", store.ListGames)
	api.GET("/games/ranking", store.GameRanking)
	api.GET("/games/search", store.SearchGames)
	api.GET("/games/:id", store.GetGame)
	api.GET("/categories", store.ListCategories)

	api.POST("/stripe/webhook", wallet.StripeWebhook)

	// ---------- Routes authentifiées ----------
	authed := api.Group("")
	authed.Use(middleware.AuthRequired())
	{
		authed.GET("/me", user.Me)
		authed.PUT("/me", user.UpdateMe)
		authed.POST("/me/avatar", user.UploadAvatar)

		authed.GET("/cart", store.GetCart)
		authed.POST("/cart/add", store.AddToCart)
		authed.DELETE("/cart/:gameId", store.RemoveFromCart)
		authed.DELETE("/cart", store.ClearCart)
		authed.GET("/cart/ws", store.CartWebSocket)

		authed.GET("/discount/:code/quote", store.QuoteDiscount)
		authed.POST("/checkout", store.Checkout)

		authed.GET("/library", store.GetLibrary)
		authed.GET("/purchases", store.GetPurchases)

		authed.GET("/wallet", wallet.GetBalance)
		authed.POST("/wallet/deposit", wallet.Deposit)
		authed.POST("/wallet/topup", wallet.CreateTopUpIntent)
		authed.GET("/wallet/transactions", wallet.GetTransactions)
		authed.GET("/wallet/ws", wallet.WalletWebSocket)
	}

	// ---------- Routes admin ----------
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		adminGroup.POST("/games", admin.CreateGame)
		adminGroup.PUT("/games/:id", admin.UpdateGame)
		adminGroup.DELETE("/games/:id", admin.DeleteGame)
		adminGroup.POST("/games/:id/cover", admin.UploadGameCover)

		adminGroup.POST("/categories", admin.CreateCategory)
		adminGroup.DELETE("/categories/:id", admin.DeleteCategory)

		adminGroup.GET("/discounts", admin.ListDiscountCodes)
		adminGroup.POST("/discounts", admin.CreateDiscountCode)
		adminGroup.PUT("/discounts/:code", admin.UpdateDiscountCode)
		adminGroup.DELETE("/discounts/:code", admin.DeleteDiscountCode)

		adminGroup.GET("/users", admin.ListUsers)
		adminGroup.GET("/transactions", admin.ListAllTransactions)
	}
}
