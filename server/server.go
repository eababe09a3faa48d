package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rallypoint/config"
	"rallypoint/database"
	"rallypoint/handlers"
	"rallypoint/middleware"
	"rallypoint/services"
)

// Deps are the long-lived components the routes are wired to.
type Deps struct {
	Store      *database.Store
	Tokens     *services.TokenManager
	Auth       *services.AuthService
	Groups     *services.GroupService
	Activities *services.ActivityService
	Metrics    *middleware.Metrics
}

// New builds the fiber app with middleware and every route registered.
func New(cfg *config.Config, log *zap.Logger, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Rallypoint",
		ErrorHandler: customErrorHandler,
	})

	allowOrigins := cfg.AllowedOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}

	// Middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(middleware.RequestLogger(log))
	app.Use(deps.Metrics.Middleware())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	app.Get("/health", handlers.Health(deps.Store))
	app.Get("/metrics", deps.Metrics.Handler())

	auth := handlers.NewAuthHandler(deps.Auth)
	groups := handlers.NewGroupHandler(deps.Groups)
	activities := handlers.NewActivityHandler(deps.Activities)
	authRequired := middleware.AuthRequired(deps.Tokens)

	// User routes
	user := app.Group("/user")
	user.Post("/register", auth.Register)
	user.Post("/login", auth.Login)
	user.Get("/me", authRequired, auth.Me)

	// Group routes
	group := app.Group("/group", authRequired)
	group.Post("/create", groups.Create)
	group.Post("/join", groups.Join)
	group.Get("/code", groups.Code)
	group.Get("/members", groups.Members)
	group.Get("/bannedMembers", groups.BannedMembers)
	group.Post("/ban", groups.Ban)
	group.Post("/unban", groups.Unban)
	group.Get("/admin", groups.Admin)
	group.Get("/list", groups.List)
	group.Get("/audit", groups.AuditLogs)

	// Activity routes
	activity := app.Group("/activity", authRequired)
	activity.Post("/create", activities.Create)
	activity.Get("/list", activities.List)
	activity.Post("/delete", activities.Delete)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		msg = e.Message
	} else {
		c.Locals(middleware.ErrorLocal, err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
