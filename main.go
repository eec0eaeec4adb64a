package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailcast/config"
	controller "mailcast/controllers"
	"mailcast/middleware"
	"mailcast/repository"
	"mailcast/routes"
	"mailcast/services"
	"mailcast/utils"
	"mailcast/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	utils.InitLogger(cfg.Environment, cfg.LogLevel)
	if err := utils.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logrus.WithError(err).Warn("Sentry disabled")
	}
	defer utils.FlushSentry()

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer config.CloseDB()

	// Cancelled only at shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories
	dispatchRepo := repository.NewDispatchRepository(config.DB)
	quotaRepo := repository.NewQuotaRepository(config.DB, cfg.Dispatch.DailyLimit)
	campaignRepo := repository.NewCampaignRepository(config.DB)
	templateRepo := repository.NewTemplateRepository(config.DB)
	listRepo := repository.NewListRepository(config.DB)

	// Dispatch engine
	mailer := utils.NewSMTPMailer(utils.MailerConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
		Timeout:   cfg.SMTP.Timeout,
	})
	dispatcher := worker.NewDispatcher(dispatchRepo, quotaRepo, mailer, worker.DispatcherConfig{
		BatchSize: cfg.Dispatch.BatchSize,
		SendDelay: cfg.Dispatch.SendDelay,
	})
	progress := worker.NewProgressHub()
	coordinator := worker.NewCoordinator(ctx, dispatcher, worker.CoordinatorConfig{
		PassPause: cfg.Dispatch.PassPause,
		Progress:  progress,
	})

	scheduler := worker.NewScheduler(coordinator, cfg.Dispatch.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "mailcast",
		DisableStartupMessage: cfg.Environment == "production",
	})
	app.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins...)))

	campaignService := services.NewCampaignService(campaignRepo, coordinator)
	routes.SetupRoutes(app, routes.Controllers{
		Campaigns: controller.NewCampaignController(campaignService),
		Templates: controller.NewTemplateController(templateRepo),
		Lists:     controller.NewListController(listRepo),
		Dispatch:  controller.NewDispatchController(coordinator, quotaRepo, progress),
		Dashboard: controller.NewDashboardController(campaignRepo, listRepo, templateRepo, quotaRepo),
	}, routes.Options{
		Auth:             middleware.Protected(),
		RateLimitStorage: middleware.NewRateLimitStorage(cfg.Redis),
	})

	// Start server
	go func() {
		logrus.Infof("Server starting on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown incomplete")
	}

	// Interrupt the run in flight; its unfinished sends stay pending
	cancel()
	scheduler.Stop(shutdownCtx)
	coordinator.Wait()

	logrus.Info("Shutdown complete")
}
