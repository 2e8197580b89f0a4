package main

import (
	"context"
	"log"
	"os"

	_ "invoicing-backend/api/swagger" // swagger docs
	"invoicing-backend/internal/catalog"
	"invoicing-backend/internal/database"
	"invoicing-backend/internal/handler"
	"invoicing-backend/internal/middleware"
	"invoicing-backend/internal/repository"
	"invoicing-backend/internal/service"
	"invoicing-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Invoice Generation API
// @version         1.0
// @description     Book and school lookup, invoice computation with discounting, persistence, and PDF rendering.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "invoices") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Book catalog is loaded once here and injected read-only.
	books, err := catalog.Load(envOr("BOOKS_FILE", "books_database.json"))
	if err != nil {
		log.Printf("WARNING: catalog not loaded (%v); book search will return nothing", err)
		books = catalog.New(nil)
	} else {
		log.Printf("Loaded %d catalog titles.", books.Len())
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)

	customerService := service.NewCustomerService(customerRepo, txManager)
	invoiceService := service.NewInvoiceService(invoiceRepo, customerService, txManager, wsHub)
	userService := service.NewUserService(userRepo)

	if err := userService.EnsureAdmin(context.Background(),
		envOr("ADMIN_USERNAME", "admin"), envOr("ADMIN_PASSWORD", "admin123")); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	customerHandler := handler.NewCustomerHandler(customerService)
	catalogHandler := handler.NewCatalogHandler(books)
	userHandler := handler.NewUserHandler(userService)

	// Set up Gin Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	customerHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
