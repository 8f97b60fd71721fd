package api

import (
	"fmt"
	"time"

	bmiHandler "menu-planner/internal/api/handlers/bmi"
	"menu-planner/internal/api/handlers/food"
	"menu-planner/internal/api/handlers/health"
	"menu-planner/internal/api/handlers/meals"
	menuHandler "menu-planner/internal/api/handlers/menu"
	"menu-planner/internal/api/handlers/pantry"
	"menu-planner/internal/api/handlers/profile"
	recipeHandler "menu-planner/internal/api/handlers/recipe"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/tracking"
	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/pkg/common"
	"menu-planner/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由需要的服務
type Services struct {
	Store     *storage.Store
	Generator *menu.Generator
	Editor    *menu.Editor
	Tracking  *tracking.Service
	// Readiness 就緒檢查的依賴
	Readiness map[string]health.Pinger
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, *middleware.Deduplicator, error) {
	if svc.Store == nil || svc.Generator == nil || svc.Editor == nil || svc.Tracking == nil {
		return nil, nil, fmt.Errorf("store, generator, editor and tracking are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	healthHandler := health.NewHandler(svc.Readiness)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	menuH := menuHandler.NewHandler(svc.Generator, svc.Editor)
	pantryH := pantry.NewHandler(svc.Store)
	foodH := food.NewHandler(svc.Store)
	profileH := profile.NewHandler(svc.Store)
	recipeH := recipeHandler.NewHandler(svc.Store, svc.Store)
	bmiH := bmiHandler.NewHandler(svc.Tracking)
	mealsH := meals.NewHandler(svc.Tracking)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth))
	{
		menuGroup := api.Group("/menu")
		{
			menuGroup.POST("/weekly/generate", dedup.Middleware(), menuH.HandleGenerate)
			menuGroup.GET("/weekly", menuH.HandleGetCurrent)
			menuGroup.PUT("/day/:id", menuH.HandleUpdateDay)
			menuGroup.POST("/meal/:id/replace", menuH.HandleReplaceIngredient)
		}

		api.GET("/profile", profileH.HandleGet)
		api.PUT("/profile", profileH.HandleUpsert)

		pantryGroup := api.Group("/pantry")
		{
			pantryGroup.GET("", pantryH.HandleList)
			pantryGroup.POST("", pantryH.HandleCreate)
			pantryGroup.PUT("/:id", pantryH.HandleUpdate)
			pantryGroup.DELETE("/:id", pantryH.HandleDelete)
		}

		foodGroup := api.Group("/foods")
		{
			foodGroup.GET("", foodH.HandleList)
			foodGroup.POST("", foodH.HandleCreate)
			foodGroup.GET("/:id", foodH.HandleGet)
		}

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipeH.HandleList)
			recipeGroup.GET("/search", recipeH.HandleSearch)
			recipeGroup.POST("/seed", recipeH.HandleSeed)
		}

		api.POST("/bmi/calculate", bmiH.HandleCalculate)
		api.GET("/bmi/history", bmiH.HandleHistory)

		mealGroup := api.Group("/meals")
		{
			mealGroup.GET("", mealsH.HandleList)
			mealGroup.POST("", mealsH.HandleCreate)
			mealGroup.PUT("/:id", mealsH.HandleUpdate)
			mealGroup.DELETE("/:id", mealsH.HandleDelete)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, dedup, nil
}
