// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "liberty/docs" // swagger docs
	"liberty/internal/cache"
	"liberty/internal/config"
	"liberty/internal/database"
	"liberty/internal/featureflags"
	"liberty/internal/middleware"
	"liberty/internal/models"
	"liberty/internal/notifications"
	"liberty/internal/repository"
	"liberty/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	flags          *featureflags.Manager
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	chatRepo    repository.ChatRepository
	commRepo    repository.CommunityRepository
	reportRepo  repository.ReportRepository
	appRepo     repository.ApplicationRepository
	supportRepo repository.SupportRepository

	notifier   *notifications.Notifier
	hub        *notifications.Hub
	chatHub    *notifications.ChatHub
	supportHub *notifications.SupportHub
	hubs       []wireableHub // all hubs for wiring/shutdown iteration

	authzService       *service.AuthzService
	userService        *service.UserService
	postService        *service.PostService
	commentService     *service.CommentService
	chatService        *service.ChatService
	communityService   *service.CommunityService
	reportService      *service.ReportService
	applicationService *service.ApplicationService
	supportService     *service.SupportService
	avatarService      *service.AvatarService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	chatRepo := repository.NewChatRepository(db)
	commRepo := repository.NewCommunityRepository(db)
	reportRepo := repository.NewReportRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	supportRepo := repository.NewSupportRepository(db)

	prom := middleware.InitMetrics("liberty-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		promMiddleware: prom,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		chatRepo:       chatRepo,
		commRepo:       commRepo,
		reportRepo:     reportRepo,
		appRepo:        appRepo,
		supportRepo:    supportRepo,
	}

	server.authzService = service.NewAuthzService(userRepo, commRepo)
	server.userService = service.NewUserService(userRepo, server.authzService)
	server.postService = service.NewPostService(postRepo, userRepo, commRepo, server.authzService)
	server.commentService = service.NewCommentService(commentRepo, postRepo, userRepo)
	server.chatService = service.NewChatService(chatRepo, userRepo, server.authzService)
	server.communityService = service.NewCommunityService(commRepo, userRepo, server.authzService)
	server.reportService = service.NewReportService(reportRepo, userRepo, postRepo, commentRepo, chatRepo, commRepo, server.authzService)
	server.applicationService = service.NewApplicationService(appRepo, userRepo, server.authzService)
	server.supportService = service.NewSupportService(supportRepo, userRepo, server.authzService)
	server.avatarService = service.NewAvatarService(userRepo, cfg)

	// Initialize notifier and hubs if Redis is available
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub(redisClient)
		server.chatHub = notifications.NewChatHub()
		server.supportHub = notifications.NewSupportHub()
		server.hubs = []wireableHub{server.hub, server.chatHub, server.supportHub}
		server.wirePresenceEvents()
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Liberty Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Avatar serving
	app.Get("/uploads/avatars/:filename", s.ServeAvatar)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public post routes (browse/search)
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	// Public community routes
	publicCommunities := api.Group("/communities")
	publicCommunities.Get("/", s.GetCommunities)
	publicCommunities.Get("/search", s.SearchCommunities)
	publicCommunities.Get("/:id/posts", s.GetCommunityPosts)
	publicCommunities.Get("/:id/members", s.GetCommunityMembers)
	publicCommunities.Get("/:id", s.GetCommunity)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Feature flag snapshot for the frontend
	protected.Get("/flags", s.GetFeatureFlags)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/avatar", s.UploadAvatar)
	users.Delete("/me", s.DeleteMyAccount)
	users.Get("/search", s.SearchUsers)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUserProfile)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// Protected post routes
	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Delete("/:id", s.DeletePost)

	// Community routes
	communities := protected.Group("/communities")
	communities.Post("/", middleware.RateLimit(
		s.redis, 2, 10*time.Minute, "create_community"), s.CreateCommunity)
	communities.Post("/:id/join", s.JoinCommunity)
	communities.Post("/:id/leave", s.LeaveCommunity)
	communities.Put("/:id/members/:userId/role", s.SetCommunityMemberRole)
	communities.Put("/:id/nickname", s.SetCommunityNickname)
	communities.Delete("/:id", s.DeleteCommunity)

	// Global chat routes
	chat := protected.Group("/chat")
	chat.Get("/messages", s.GetChatHistory)
	chat.Post("/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendChatMessage)

	// Report routes
	reports := protected.Group("/reports")
	reports.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "file_report"), s.CreateReport)

	// Application routes
	applications := protected.Group("/applications")
	applications.Post("/", middleware.RateLimit(
		s.redis, 2, 10*time.Minute, "submit_application"), s.CreateApplication)
	applications.Get("/me", s.GetMyApplications)

	// Support ticket routes
	support := protected.Group("/support/tickets")
	support.Post("/", middleware.RateLimit(
		s.redis, 2, 10*time.Minute, "open_ticket"), s.OpenSupportTicket)
	support.Get("/me", s.GetMySupportTicket)
	support.Get("/:id/messages", s.GetTicketMessages)
	support.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "ticket_message"), s.PostTicketMessage)
	support.Post("/:id/close", s.CloseSupportTicket)
	support.Get("/:id", s.GetSupportTicket)

	// Websocket endpoints - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler())               // Personal notifications + staff events
	ws.Get("/chat", s.WebSocketChatHandler())       // Global chat room
	ws.Get("/support", s.WebSocketSupportHandler()) // Support ticket rooms

	// Staff dashboard routes
	admin := protected.Group("/admin", s.StaffRequired())
	admin.Get("/reports", s.GetReports)
	admin.Get("/reports/:id", s.GetReport)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Post("/reports/:id/dismiss", s.DismissReport)
	admin.Post("/users/:id/warn", s.WarnUser)
	admin.Post("/users/:id/ban", s.BanUser)
	admin.Post("/users/:id/unban", s.UnbanUser)
	admin.Put("/users/:id/role", s.SetUserRole)
	admin.Delete("/users/:id", s.DeleteUser)
	admin.Delete("/chat/messages/:id", s.DeleteChatMessage)
	admin.Get("/applications", s.GetPendingApplications)
	admin.Post("/applications/:id/approve", s.ApproveApplication)
	admin.Post("/applications/:id/reject", s.RejectApplication)
	admin.Get("/support/tickets", s.GetOpenSupportTickets)
	admin.Get("/presence", s.GetOnlinePresence)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Liberty",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// StaffRequired returns middleware that rejects non-staff users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		if _, err := s.authzService.RequireStaff(c.Context(), userID); err != nil {
			return s.respondServiceError(c, err)
		}

		return c.Next()
	}
}

// OwnerRequired returns middleware that admits only the platform owner.
func (s *Server) OwnerRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		if _, err := s.authzService.RequireOwner(c.Context(), userID); err != nil {
			return s.respondServiceError(c, err)
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			userIDStr, err := s.redis.Get(c.Context(), key).Result()
			if err == nil {
				userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
				if parseErr == nil {
					// Delete ticket immediately (single-use)
					s.redis.Del(c.Context(), key)

					c.Locals("userID", uint(userID))
					ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
					c.SetUserContext(ctx)
					return c.Next()
				}
			}
			// If ticket was provided but invalid/expired, fail on WS paths
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token or query param)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "liberty-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "liberty-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		c.Locals("userID", uint(userID))
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Liberty Social API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					log.Printf("failed to start %s wiring: %v", h.Name(), err)
				}
			}()
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
