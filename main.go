package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"

	"pastprep-server/catalog"
	"pastprep-server/config"
	"pastprep-server/handlers"
	"pastprep-server/middleware"
	"pastprep-server/session"
	"pastprep-server/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Load the immutable paper catalog and the timer duration table
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Error loading paper catalog: %v", err)
	}
	durations, err := catalog.LoadDurations(cfg.DurationsPath, cfg.DefaultDurationMinutes)
	if err != nil {
		log.Fatalf("Error loading duration table: %v", err)
	}

	// Connect to the document database
	st, client, err := store.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()
	if err := st.EnsureIndexes(context.Background()); err != nil {
		log.Printf("Warning: could not create indexes: %v", err)
	}

	sessions := session.NewManager(cat, durations)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// Load HTML templates for admin UI
	renderer := multitemplate.NewRenderer()
	renderer.AddFromFiles("admin_dashboard", "templates/layout.html", "templates/admin_dashboard.html")
	renderer.AddFromFiles("admin_users", "templates/layout.html", "templates/admin_users.html")
	router.HTMLRender = renderer

	router.Use(middleware.Logger())

	authMiddleware := middleware.AuthMiddleware(st, cfg.Auth.GoogleClientID, cfg.Auth.AdminEmail)

	// Open endpoints
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/proxy", handlers.ProxyDocument(cfg.Proxy.Timeout))
	router.OPTIONS("/proxy", handlers.ProxyDocument(cfg.Proxy.Timeout))

	// API Routes (version 1)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(authMiddleware)
	{
		apiV1.POST("/auth/login", handlers.Login(st))

		apiV1.GET("/catalog", handlers.GetCatalog(cat, st))
		apiV1.GET("/catalog/search", handlers.SearchCatalog(cat))
		apiV1.GET("/papers/*path", handlers.GetPaper(cat))

		apiV1.POST("/goals", handlers.AddGoal(cat, st))
		apiV1.GET("/goals", handlers.ListGoals(st))
		apiV1.PATCH("/goals/:id/completion", handlers.SetGoalCompletion(st))
		apiV1.DELETE("/goals/:id", handlers.DeleteGoal(st))

		apiV1.POST("/mocks", handlers.RecordMock(cat, st))
		apiV1.POST("/mocks/:id/score", handlers.AttachMockScore(st))
		apiV1.GET("/mocks", handlers.ListMocks(st))

		apiV1.GET("/preferences", handlers.GetPreferences(st))
		apiV1.PUT("/preferences", handlers.SetPreferences(st))

		apiV1.GET("/session", handlers.GetSession(sessions))
		apiV1.POST("/session/select", handlers.SelectPaper(sessions))
		apiV1.POST("/session/tab", handlers.SetTab(sessions))
		apiV1.POST("/session/exam/start", handlers.StartExam(sessions))
		apiV1.POST("/session/exam/finish", handlers.FinishExam(sessions, st))
	}

	// Admin Routes
	admin := router.Group("/admin")
	admin.Use(authMiddleware)
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/dashboard", handlers.AdminDashboard(st))
		admin.GET("/users/page", handlers.AdminUsersPage(st))
		admin.GET("/users", handlers.AdminListUsers(st))
		admin.POST("/users/:email/ban", handlers.AdminSetBan(st, cfg.Auth.AdminEmail, true))
		admin.POST("/users/:email/unban", handlers.AdminSetBan(st, cfg.Auth.AdminEmail, false))
		admin.DELETE("/users/:email", handlers.AdminDeleteUser(st, cfg.Auth.AdminEmail))
	}

	// Start the server
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("PastPrep Server starting on %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server startup error: %v", err)
	}
	log.Println("Server exited gracefully.")
}
