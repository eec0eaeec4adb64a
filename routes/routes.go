package routes

import (
	controller "mailcast/controllers"
	"mailcast/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// Controllers bundles every handler the API exposes
type Controllers struct {
	Campaigns *controller.CampaignController
	Templates *controller.TemplateController
	Lists     *controller.ListController
	Dispatch  *controller.DispatchController
	Dashboard *controller.DashboardController
}

// Options carries the middleware dependencies of the routes
type Options struct {
	Auth             fiber.Handler
	RateLimitStorage fiber.Storage
}

func SetupAPIRoutes(app *fiber.App, ctl Controllers, opts Options) {
	// Upgrade check runs before auth so plain GETs get a 426
	app.Use("/api/dispatch/progress", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/api/dispatch/progress", opts.Auth, websocket.New(ctl.Dispatch.StreamProgress))

	api := app.Group("/api", opts.Auth, logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Template routes
	templates := api.Group("/templates")
	templates.Post("/", ctl.Templates.CreateTemplate)
	templates.Get("/", ctl.Templates.GetTemplates)
	templates.Get("/:id", ctl.Templates.GetTemplate)
	templates.Put("/:id", ctl.Templates.UpdateTemplate)
	templates.Delete("/:id", ctl.Templates.DeleteTemplate)

	// List routes
	lists := api.Group("/lists")
	lists.Post("/", ctl.Lists.CreateList)
	lists.Get("/", ctl.Lists.GetLists)
	lists.Get("/:id", ctl.Lists.GetList)
	lists.Delete("/:id", ctl.Lists.DeleteList)
	lists.Post("/:id/unsubscribe", ctl.Lists.Unsubscribe)

	// Campaign routes
	campaigns := api.Group("/campaigns")
	campaigns.Post("/", ctl.Campaigns.CreateCampaign)
	campaigns.Get("/", ctl.Campaigns.GetCampaigns)
	campaigns.Get("/:id", ctl.Campaigns.GetCampaign)
	campaigns.Post("/:id/start", ctl.Campaigns.StartCampaign)
	campaigns.Post("/:id/pause", ctl.Campaigns.PauseCampaign)
	campaigns.Post("/:id/resume", ctl.Campaigns.ResumeCampaign)
	campaigns.Delete("/:id", ctl.Campaigns.DeleteCampaign)

	// Dispatch routes
	dispatch := api.Group("/dispatch")
	dispatch.Post("/run", middleware.TriggerRateLimiter(opts.RateLimitStorage), ctl.Dispatch.RunDispatch)
	dispatch.Get("/status", ctl.Dispatch.GetStatus)

	// Dashboard routes
	api.Get("/dashboard/stats", ctl.Dashboard.GetDashboardStats)

	logrus.Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, ctl Controllers, opts Options) {
	if opts.Auth == nil {
		opts.Auth = middleware.Protected()
	}

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAPIRoutes(app, ctl, opts)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
