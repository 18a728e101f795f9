package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/apexmach/erp-api/internal/config"
	"github.com/apexmach/erp-api/internal/database"
	"github.com/apexmach/erp-api/internal/handlers"
	"github.com/apexmach/erp-api/internal/jobs"
	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/internal/services"
	"github.com/apexmach/erp-api/pkg/logger"
)

// @title ApexMach ERP API
// @version 1.0
// @description REST API for non-standard automation equipment project management

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run schema migration
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migrated")

	// Initialize repositories
	repos := repository.NewRepositories(db)
	transactor := repository.NewTransactor(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, transactor, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// scheduleJobs registers the recurring background jobs
func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	interval := time.Duration(cfg.OverdueScanHours) * time.Hour

	// Overdue invoice scan
	worker.ScheduleEveryImmediate(interval, func(ctx context.Context) error {
		count, err := svcs.Invoice.ScanOverdue(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			logger.Info("Overdue invoice scan finished", "overdue", count)
		}
		return nil
	})
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User management
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.GET("/users/:user_id", h.User.Show)
				admin.PUT("/users/:user_id/role", h.User.SetRole)
				admin.POST("/users/:user_id/suspend", h.User.Suspend)

				// Contract approval (admin only)
				admin.POST("/contracts/:contract_id/approve", h.Contract.Approve)
				admin.POST("/contracts/:contract_id/reject", h.Contract.Reject)

				// Project deletion
				admin.DELETE("/projects/:project_id", h.Project.Delete)

				// Audit trail and worker status
				admin.GET("/audit_logs", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Sales routes (admin or sales)
			sales := protected.Group("")
			sales.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSales))
			{
				sales.POST("/customers", h.Customer.Create)
				sales.PUT("/customers/:customer_id", h.Customer.Update)

				sales.POST("/leads", h.Pipeline.CreateLead)
				sales.POST("/leads/:lead_id/qualify", h.Pipeline.QualifyLead)
				sales.POST("/leads/:lead_id/drop", h.Pipeline.DropLead)
				sales.POST("/leads/:lead_id/convert", h.Pipeline.ConvertLead)
				sales.POST("/opportunities/:opportunity_id/advance", h.Pipeline.AdvanceOpportunity)
				sales.POST("/quotes", h.Pipeline.CreateQuote)
				sales.POST("/quotes/:quote_id/send", h.Pipeline.SendQuote)
				sales.POST("/quotes/:quote_id/accept", h.Pipeline.AcceptQuote)
				sales.POST("/quotes/:quote_id/reject", h.Pipeline.RejectQuote)

				sales.POST("/contracts", h.Contract.Create)
				sales.POST("/contracts/:contract_id/submit", h.Contract.Submit)
				sales.POST("/contracts/:contract_id/cancel", h.Contract.Cancel)
				sales.POST("/contracts/:contract_id/close", h.Contract.Close)
				sales.POST("/contracts/:contract_id/activate", h.Contract.Activate)
			}

			// Delivery routes (admin or project manager)
			delivery := protected.Group("")
			delivery.Use(middleware.RequireRole(models.RoleAdmin, models.RoleProjectManager))
			{
				delivery.POST("/projects", h.Project.Create)
				delivery.PUT("/projects/:project_id", h.Project.Update)
				delivery.POST("/projects/:project_id/refresh", h.Project.Refresh)

				delivery.POST("/projects/:project_id/machines", h.Machine.Create)
				delivery.PUT("/projects/:project_id/machines/:machine_id/status", h.Machine.UpdateStatus)
				delivery.DELETE("/projects/:project_id/machines/:machine_id", h.Machine.Delete)

				delivery.POST("/projects/:project_id/milestones", h.Milestone.Create)
				delivery.PUT("/projects/:project_id/milestones/:milestone_id", h.Milestone.Update)
				delivery.POST("/projects/:project_id/milestones/:milestone_id/complete", h.Milestone.Complete)
				delivery.POST("/projects/:project_id/milestones/:milestone_id/cancel", h.Milestone.Cancel)

				delivery.POST("/invoices/:invoice_id/issue", h.Invoice.Issue)
				delivery.POST("/invoices/:invoice_id/mark_paid", h.Invoice.MarkPaid)
				delivery.POST("/invoices/:invoice_id/void", h.Invoice.Void)
			}

			// Read-only routes for any authenticated user
			protected.GET("/customers", h.Customer.Index)
			protected.GET("/customers/:customer_id", h.Customer.Show)
			protected.GET("/customers/:customer_id/360", h.Customer.View360)

			protected.GET("/leads", h.Pipeline.ListLeads)
			protected.GET("/opportunities", h.Pipeline.ListOpportunities)
			protected.GET("/quotes", h.Pipeline.ListQuotes)

			protected.GET("/contracts", h.Contract.Index)
			protected.GET("/contracts/:contract_id", h.Contract.Show)

			protected.GET("/projects", h.Project.Index)
			protected.GET("/projects/:project_id", h.Project.Show)
			protected.GET("/projects/:project_id/summary", h.Project.Summary)
			protected.GET("/projects/:project_id/machines", h.Machine.Index)
			protected.GET("/projects/:project_id/machines/:machine_id", h.Machine.Show)
			protected.GET("/projects/:project_id/milestones", h.Milestone.Index)

			protected.GET("/invoices", h.Invoice.Index)
			protected.GET("/invoices/:invoice_id", h.Invoice.Show)
			protected.GET("/invoices/:invoice_id/pdf", h.Invoice.DownloadPDF)

			protected.GET("/reports/dashboard", h.Report.Dashboard)
			protected.GET("/reports/receivables", h.Report.Receivables)
			protected.GET("/reports/dashboard/export", h.Report.ExportDashboard)
			protected.GET("/reports/projects/export", h.Report.ExportProjects)
			protected.GET("/reports/receivables/export", h.Report.ExportReceivables)
			protected.GET("/reports/projects/:project_id/machines/export", h.Report.ExportMachines)

			protected.POST("/users/change_password", h.User.ChangePassword)

			protected.GET("/notifications", h.Notification.Index)
			protected.POST("/notifications/:notification_id/read", h.Notification.MarkRead)
			protected.POST("/notifications/read_all", h.Notification.MarkAllRead)
		}
	}

	return router
}
