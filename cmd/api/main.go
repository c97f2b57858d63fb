package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go-stocktrack/internal/feed"
	"go-stocktrack/internal/handler"
	"go-stocktrack/internal/middleware"
	"go-stocktrack/internal/model"
	"go-stocktrack/internal/repository"
	"go-stocktrack/internal/service"
	"go-stocktrack/pkg/database"
	"go-stocktrack/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		// A real environment may provide everything without a .env file.
		os.Stderr.WriteString("warning: .env file not found\n")
	}

	if err := logger.Init(&logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("APP_ENV"),
		ServiceName: "stocktrack",
	}); err != nil {
		panic(err)
	}
	log := logger.Get()
	defer log.Sync()

	// 2. Setup database
	db := database.Connect()
	if err := db.AutoMigrate(&model.InventoryItem{}, &model.Category{}); err != nil {
		log.Fatal("auto-migration failed", zap.Error(err))
	}

	// 3. Change feed hub
	hub := feed.NewHub(log)
	go hub.Run()

	// 4. Dependency injection (wiring layers)
	itemRepo := repository.NewItemRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)

	invService := service.NewInventoryService(itemRepo, hub, log)
	catService := service.NewCategoryService(categoryRepo, hub, log)

	invHandler := handler.NewInventoryHandler(invService)
	catHandler := handler.NewCategoryHandler(catService)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "StockTrack v1.0",
	})

	httpMetrics := middleware.NewHTTPMetrics("stocktrack")

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpMetrics.Middleware())

	// 6. Routes
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	api.Get("/items", invHandler.GetItems)
	api.Get("/items/search", invHandler.SearchItems)
	api.Get("/items/low-stock", invHandler.GetLowStockItems)
	api.Post("/items/batch", invHandler.CreateItems)
	api.Put("/items/batch", invHandler.UpdateItems)
	api.Get("/items/:id", invHandler.GetItem)
	api.Post("/items", invHandler.CreateItem)
	api.Put("/items/:id", invHandler.UpdateItem)
	api.Delete("/items/:id", invHandler.DeleteItem)

	api.Get("/categories", catHandler.GetCategories)
	api.Post("/categories", catHandler.CreateCategory)
	api.Delete("/categories/:id", catHandler.DeleteCategory)

	api.Get("/stats", invHandler.GetStatistics)

	// 7. WebSocket change-feed bridge
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		var mu sync.Mutex
		send := func(ev feed.Event) {
			payload, err := json.Marshal(ev)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("ws write failed", zap.Error(err))
			}
		}

		itemSub := hub.Subscribe(model.InventoryItem{}.TableName(), feed.EventAll, send)
		defer itemSub.Unsubscribe()
		catSub := hub.Subscribe(model.Category{}.TableName(), feed.EventAll, send)
		defer catSub.Unsubscribe()

		if itemSub.Err != nil || catSub.Err != nil {
			return
		}

		// Keep-alive loop; the connection closes when the client goes
		// away.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	hub.Stop()
	if err := app.Shutdown(); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
