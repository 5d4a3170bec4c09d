package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, env *Env, corsOrigin string) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", AdminTokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: corsOrigin != "*",
	}))

	router.GET("/health", env.Health)

	api := router.Group("/api/v4ult")
	{
		api.POST("/confessions", env.CreateConfession)
		api.GET("/reveal/:shortCode", env.Reveal)
		api.POST("/reveal/:shortCode/submit-payment", RateLimitMiddleware(env.Limiter, env.Logger), env.SubmitPayment)
		api.GET("/my-confessions", env.MyConfessions)
		api.POST("/validate-name", env.ValidateName)
		api.POST("/validate-confession", env.ValidateConfession)
		api.GET("/stats", env.Stats)
	}

	admin := api.Group("/admin", AdminAuthMiddleware(env.Auth))
	{
		admin.GET("/confessions", env.AdminListConfessions)
		admin.GET("/confessions/:id", env.AdminGetConfession)
		admin.GET("/confessions/:id/audit", env.AdminAuditTrail)
		admin.POST("/confessions/:id/status", env.AdminUpdateStatus)
		admin.POST("/confessions/:id/mark-paid", env.AdminMarkPaid)
		admin.POST("/confessions/:id/refund", env.AdminRefund)
		admin.GET("/payments", env.AdminPayments)
		admin.GET("/live", env.AdminLive)
	}
}
