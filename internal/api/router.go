package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mealvilla/staff-portal/docs"
	"github.com/mealvilla/staff-portal/internal/api/handler"
	"github.com/mealvilla/staff-portal/internal/api/middleware"
	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
	infrahttp "github.com/mealvilla/staff-portal/internal/infrastructure/http"
	"github.com/mealvilla/staff-portal/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Log       zerolog.Logger
	JWTSecret string

	Auth         ports.AuthService
	Directory    ports.UserDirectory
	Ledger       ports.RequestLedger
	Workflow     ports.ApprovalWorkflow
	Sales        ports.SalesLedger
	Feed         ports.NotificationFeed
	Exporter     handler.SheetExporter
	ExportType   string
	HealthChecks map[string]handlers.Check

	// SkipMetrics leaves out the Prometheus middleware; collectors can only
	// be registered once per process.
	SkipMetrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	if !d.SkipMetrics {
		e.Use(echoprometheus.NewMiddleware("staff_portal_http"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Public routes ---
	infrahttp.RegisterProbes(e, d.HealthChecks)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", middleware.Auth(d.JWTSecret))

	approvers := middleware.RBAC(domain.RoleManager, domain.RoleDeveloper)
	supervisors := middleware.RBAC(domain.RoleSupervisor)
	browsers := middleware.RBAC(domain.RoleManager, domain.RoleDeveloper, domain.RoleSupervisor)

	users := handler.NewUserHandler(d.Directory)
	v1.GET("/users", users.List, browsers)
	v1.GET("/users/:id", users.Get, browsers)
	v1.POST("/users", users.Create, approvers)
	v1.DELETE("/users/:id", users.Delete, approvers)

	requests := handler.NewRequestHandler(d.Ledger, d.Workflow)
	v1.POST("/requests/deletion", requests.CreateDeletion, supervisors)
	v1.POST("/requests/add-staff", requests.CreateAddStaff, supervisors)
	v1.GET("/requests/:kind", requests.List, browsers)
	v1.GET("/requests/:kind/:id", requests.Get, browsers)
	v1.POST("/requests/deletion/:id/approve", requests.ApproveDeletion, approvers)
	v1.POST("/requests/deletion/:id/decline", requests.DeclineDeletion, approvers)
	v1.POST("/requests/add-staff/:id/approve", requests.ApproveAddStaff, approvers)
	v1.POST("/requests/add-staff/:id/decline", requests.DeclineAddStaff, approvers)

	sales := handler.NewSalesHandler(d.Sales, d.Exporter, d.ExportType)
	v1.GET("/sales/today", sales.Today)
	v1.POST("/sales/today", sales.Submit)
	v1.POST("/sales/today/reset", sales.Reset)
	v1.POST("/sales/today/finalize", sales.Finalize)
	v1.GET("/sales/export", sales.Export, approvers)

	notifications := handler.NewNotificationHandler(d.Feed)
	v1.GET("/notifications", notifications.List)

	return e
}
