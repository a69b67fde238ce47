package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/config"
	"github.com/kendall-kelly/order-analytics-api/controllers"
	"github.com/kendall-kelly/order-analytics-api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter builds the HTTP routes over app
func setupRouter(app *application) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})))

	authenticate, err := middleware.EnsureValidToken(app.cfg, app.logger)
	if err != nil {
		return nil, err
	}

	uploadController := controllers.NewUploadController(app.processor, app.store, app.archive, app.cfg.MaxUploadSize, app.logger)
	orderController := controllers.NewOrderController(app.store, app.logger)
	dashboardController := controllers.NewDashboardController(app.analytics, app.logger)
	exportController := controllers.NewExportController(app.store, app.logger)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		protected := v1.Group("", authenticate)
		{
			protected.GET("/database/status", databaseStatus(app.store))

			protected.POST("/uploads/orders", withScope(app.cfg, middleware.ScopeUploadOrders, uploadController.UploadOrders)...)
			protected.GET("/uploads", withScope(app.cfg, middleware.ScopeReadAnalytics, uploadController.ListUploads)...)
			protected.GET("/uploads/:id/archive", withScope(app.cfg, middleware.ScopeReadAnalytics, uploadController.GetUploadArchive)...)

			protected.GET("/orders", withScope(app.cfg, middleware.ScopeReadAnalytics, orderController.ListOrders)...)
			protected.GET("/metrics/dashboard", withScope(app.cfg, middleware.ScopeReadAnalytics, dashboardController.GetDashboard)...)
			protected.GET("/export/excel", withScope(app.cfg, middleware.ScopeReadAnalytics, exportController.ExportExcel)...)
		}
	}

	return router, nil
}

// withScope prefixes handler with the scope check for scope
func withScope(cfg *config.Config, scope string, handler gin.HandlerFunc) []gin.HandlerFunc {
	return append(middleware.Authorize(cfg, scope), handler)
}
