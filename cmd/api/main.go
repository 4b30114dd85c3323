package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ip-review-api/config"
	"ip-review-api/controllers"
	"ip-review-api/middleware"
	"ip-review-api/models"
	"ip-review-api/routes"
	"ip-review-api/services"
)

func main() {
	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal("❌ Invalid configuration: ", err)
	}
	if settings.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is required")
	}

	config.InitDB(settings)
	if err := models.AutoMigrate(config.DB); err != nil {
		log.Fatal("❌ Failed to migrate database: ", err)
	}

	catalog, err := config.LoadFieldCatalog(settings.FieldCatalogPath)
	if err != nil {
		log.Fatal("❌ Failed to load field catalog: ", err)
	}

	mailer := config.NewMailer(settings)
	if !mailer.Configured() {
		log.Printf("⚠️  SMTP not configured, notifications are recorded in-app only")
	}
	dispatcher := services.NewDispatcher(config.DB, mailer, nil, settings.AppBaseURL)

	collaborators := services.Collaborators{
		Authorizer: services.RoleAuthorizer{},
		Fields:     catalog,
		Replacer:   services.WholeValueReplacer{},
		Notifier:   dispatcher,
	}
	handler := &controllers.Handler{
		Applications:  services.NewApplicationService(config.DB, collaborators),
		Suggestions:   services.NewSuggestionService(config.DB, collaborators),
		Reviews:       services.NewReviewService(config.DB, collaborators),
		StatusUpdates: services.NewStatusUpdateService(config.DB, collaborators),
		Notifications: services.NewNotificationService(config.DB),
		Fields:        catalog,
	}

	if settings.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(settings.AllowedOrigins))

	routes.SetupRoutes(router, handler, settings.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + settings.ServerPort,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Server starting on port %s (%s)", settings.ServerPort, settings.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	dispatcher.Wait()
}
