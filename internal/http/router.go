package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Reads are public; mutations sit behind the auth middleware, matching the
// API contract (GET /api/loans needs no credentials, borrow/return do).
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session load so the session context survives
	// CSRF's request replacement.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	loansController := NewLoansController(cfg.LoanStore)
	booksController := NewBooksController(cfg.BookStore)
	membersController := NewMembersController(cfg.MemberStore)
	categoriesController := NewCategoriesController(cfg.CategoryStore)
	dashboardController := NewDashboardController(cfg.BookStore, cfg.MemberStore, cfg.LoanStore)
	exportController := NewExportController(cfg.LoanStore)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Public reads
	router.GET("/api/loans", loansController.List)
	router.GET("/api/loans/export", exportController.LoansCSV)
	router.GET("/api/loans/:id", loansController.Get)
	router.GET("/api/books", booksController.List)
	router.GET("/api/books/:id", booksController.Get)
	router.GET("/api/members", membersController.List)
	router.GET("/api/members/:id", membersController.Get)
	router.GET("/api/categories", categoriesController.List)
	router.GET("/api/dashboard/stats", dashboardController.Stats)

	// Auth endpoints
	if cfg.AuthController != nil {
		router.POST("/api/auth/register", cfg.AuthController.Register)
		router.POST("/api/auth/login", cfg.AuthController.Login)
		router.POST("/api/auth/logout", cfg.AuthController.Logout)
	}

	// Mutations require an authenticated principal
	protected := router.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	protected.POST("/api/loans/borrow", loansController.Borrow)
	protected.POST("/api/loans/return", loansController.Return)

	protected.POST("/api/books", booksController.Create)
	protected.PUT("/api/books/:id", booksController.Update)
	protected.DELETE("/api/books/:id", booksController.Delete)

	protected.POST("/api/members", membersController.Create)
	protected.PUT("/api/members/:id", membersController.Update)
	protected.DELETE("/api/members/:id", membersController.Delete)

	protected.POST("/api/categories", categoriesController.Create)
	protected.DELETE("/api/categories/:id", categoriesController.Delete)

	if cfg.AuthController != nil {
		protected.POST("/api/auth/token", cfg.AuthController.GenerateToken)
	}

	if cfg.CoverStorage != nil {
		coversController := NewCoversController(cfg.CoverStorage, cfg.BookStore)
		router.GET("/api/books/:id/cover", coversController.Get)
		protected.POST("/api/books/:id/cover", coversController.Upload)
	}

	return router
}
