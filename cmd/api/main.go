package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	_ "procurement/api/swagger" // swagger docs
	"procurement/internal/config"
	"procurement/internal/database"
	"procurement/internal/handler"
	"procurement/internal/middleware"
	"procurement/internal/notification"
	"procurement/internal/repository"
	"procurement/internal/service"
	"procurement/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Procurement Workflow API
// @version         1.0
// @description     Quotation requests, supplier responses and purchase orders for construction projects.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	middleware.SetJWTSecret(cfg.JWTSecret)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Storage: PostgreSQL in production, in-memory for demos and local runs
	var (
		store     repository.QuotationStore
		suppliers repository.SupplierRepository
		audits    repository.AuditRepository
		txManager repository.TransactionManager
		users     repository.UserRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		memAudit := repository.NewMemoryAuditRepository()
		store = repository.NewMemoryQuotationStore(memAudit)
		suppliers = repository.NewMemorySupplierRepository()
		audits = memAudit
		txManager = repository.NewMemoryTransactionManager()
		users = repository.NewMemoryUserRepository()
		log.Println("Using in-memory store; data is lost on restart.")
	default:
		db, err := database.NewConnection(cfg.DSN())
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		log.Println("Connected to PostgreSQL successfully.")

		store = repository.NewQuotationStore(db)
		suppliers = repository.NewSupplierRepository(db)
		audits = repository.NewAuditRepository(db)
		txManager = repository.NewTransactionManager(db)
		users = repository.NewUserRepository(db)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(middleware.RoleSupplier)
	go wsHub.Run()

	gateway := notification.NewGateway(suppliers, store, wsHub, logger)
	notifier := service.NewNotifier(gateway, wsHub, cfg.NotifyTimeout, logger)

	// Set up dependencies (Repository -> Service -> Handler)
	quotationService := service.NewQuotationService(store, suppliers, notifier, logger)
	responseService := service.NewResponseService(store, notifier)
	purchaseOrderService := service.NewPurchaseOrderService(store, notifier)
	supplierService := service.NewSupplierService(suppliers, audits, txManager)
	auditService := service.NewAuditService(audits)
	userService := service.NewUserService(users, suppliers, middleware.GetJWTSecret, cfg.TokenTTL, logger)

	if err := userService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	quotationHandler := handler.NewQuotationHandler(quotationService)
	responseHandler := handler.NewResponseHandler(responseService, purchaseOrderService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	auditHandler := handler.NewAuditHandler(auditService)
	userHandler := handler.NewUserHandler(userService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "store": cfg.StoreDriver})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(),
			middleware.RoleQS, middleware.RoleSeniorQS, middleware.RoleAdmin, middleware.RoleSupplier)
	})

	api := router.Group("")
	quotationHandler.RegisterRoutes(api)
	responseHandler.RegisterRoutes(api)
	purchaseOrderHandler.RegisterRoutes(api)
	supplierHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
