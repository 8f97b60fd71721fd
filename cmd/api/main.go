package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-planner/internal/api"
	"menu-planner/internal/api/handlers/health"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/tracking"
	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/infrastructure/database"
	"menu-planner/internal/infrastructure/lock"
	"menu-planner/internal/infrastructure/redisclient"
	"menu-planner/internal/pkg/common"
	"menu-planner/internal/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if err := run(cfg); err != nil {
		common.LogError("Server stopped with error", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	common.LogInfo("載入設定",
		zap.String("generator", cfg.Generator.Provider),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("gemini_model", cfg.Gemini.Model),
		zap.String("database", cfg.Database.Path),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	loc, _ := cfg.Menu.Location()
	firstDay, _ := cfg.Menu.FirstWeekday()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	store := storage.New(db.SQL, loc)
	if cfg.Database.SeedRecipes {
		if _, err := store.SeedRecipes(ctx); err != nil {
			return fmt.Errorf("failed to seed recipes: %w", err)
		}
	}

	redisClient, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	textGen, closeGen, err := newTextGenerator(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeGen()

	var locker menu.Locker = lock.NewMemoryLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, cfg.Lock.TTL, cfg.Lock.RetryInterval)
	}

	generator := menu.NewGenerator(menu.Dependencies{
		Profiles:    store,
		Pantry:      store,
		Catalog:     store,
		Plans:       store,
		Locker:      locker,
		Selector:    menu.NewSelector(nil, cfg.Menu.MatchThreshold),
		Synthesizer: menu.NewSynthesizer(textGen, cfg.Generator.Timeout),
		Calendar:    menu.NewWeekCalendar(firstDay, loc),
	})
	editor := menu.NewEditor(store, store)
	tracker := tracking.NewService(store, store, store, loc)

	readiness := map[string]health.Pinger{"database": db}
	if redisClient != nil {
		readiness["redis"] = health.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router, dedup, err := api.SetupRouter(cfg, api.Services{
		Store:     store,
		Generator: generator,
		Editor:    editor,
		Tracking:  tracker,
		Readiness: readiness,
	})
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}
	defer dedup.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	common.LogInfo("Server exited")
	return nil
}
