// Package router assembles the HTTP surface: middleware, public routes and
// the bearer-protected /api groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pesaprime/internal/handlers"
	"pesaprime/internal/middleware"
	"pesaprime/internal/services"

	_ "pesaprime/internal/docs" // Import swagger docs
)

// New builds the gin engine serving the services in b.
func New(b *services.Bundle, allowedOrigins []string) *gin.Engine {
	authHandler := handlers.NewAuthHandler(b.Users)
	walletHandler := handlers.NewWalletHandler(b.Wallets)
	marketHandler := handlers.NewMarketHandler(b.Quoter)
	investmentHandler := handlers.NewInvestmentHandler(b.Investments)
	activityHandler := handlers.NewActivityHandler(b.Activities)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(allowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	api.GET("/assets/market", marketHandler.GetMarket)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)

	wallet := protected.Group("/wallet")
	wallet.GET("/balance", walletHandler.GetBalance)
	wallet.POST("/deposit", walletHandler.Deposit)
	wallet.POST("/withdraw", walletHandler.Withdraw)
	wallet.GET("/pnl", walletHandler.GetPnL)

	investments := protected.Group("/investments")
	investments.POST("/buy", investmentHandler.Buy)
	investments.GET("/my", investmentHandler.GetMyInvestments)
	investments.POST("/:id/close", investmentHandler.Close)

	activities := protected.Group("/activities")
	activities.GET("/my", activityHandler.GetMyActivities)
	activities.GET("", activityHandler.ListActivities)

	return router
}
