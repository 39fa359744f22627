package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/feedback-management/api"
	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/auth"
	authPostgres "github.com/frahmantamala/feedback-management/internal/auth/postgres"
	"github.com/frahmantamala/feedback-management/internal/core/events"
	"github.com/frahmantamala/feedback-management/internal/designation"
	designationPostgres "github.com/frahmantamala/feedback-management/internal/designation/postgres"
	"github.com/frahmantamala/feedback-management/internal/employee"
	employeePostgres "github.com/frahmantamala/feedback-management/internal/employee/postgres"
	"github.com/frahmantamala/feedback-management/internal/feedback"
	feedbackPostgres "github.com/frahmantamala/feedback-management/internal/feedback/postgres"
	"github.com/frahmantamala/feedback-management/internal/question"
	questionPostgres "github.com/frahmantamala/feedback-management/internal/question/postgres"
	"github.com/frahmantamala/feedback-management/internal/transport"
	"github.com/frahmantamala/feedback-management/internal/transport/middleware"
	"github.com/frahmantamala/feedback-management/internal/transport/rest"
	"github.com/frahmantamala/feedback-management/internal/transport/swagger"
	"github.com/frahmantamala/feedback-management/internal/user"
	userPostgres "github.com/frahmantamala/feedback-management/internal/user/postgres"
	"github.com/frahmantamala/feedback-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const limiterCleanupInterval = 10 * time.Minute

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Gorm        *gorm.DB
	Router      *chi.Mux
	EventBus    *events.EventBus
	AuthLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	stopCleanup := make(chan struct{})
	if deps.AuthLimiter != nil {
		go runLimiterCleanup(deps.AuthLimiter, stopCleanup)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	close(stopCleanup)
	deps.EventBus.Wait()
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("database close error", "error", err)
	}

	deps.Logger.Info("server stopped")
}

func runLimiterCleanup(rl *middleware.RateLimiter, stop <-chan struct{}) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-stop:
			return
		}
	}
}

func setupRoutes(deps *Dependencies) error {
	if _, err := swagger.LoadSpec(context.Background(), api.OpenAPISpec); err != nil {
		return err
	}

	cfg := deps.Config
	base := transport.NewBaseHandler(deps.Logger)

	employeeRepo := employeePostgres.NewEmployeeRepository(deps.Gorm, deps.DB)
	employeeService := employee.NewService(employeeRepo, deps.Logger)

	designationService := designation.NewService(designationPostgres.NewDesignationRepository(deps.Gorm), deps.Logger)
	questionService := question.NewService(questionPostgres.NewQuestionRepository(deps.Gorm), deps.Logger)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm, employeeRepo),
		designationService,
		tokens,
		deps.EventBus,
		deps.Logger,
		cfg.Security.BCryptCost,
	)

	feedbackService := feedback.NewService(feedbackPostgres.NewFeedbackRepository(deps.Gorm), employeeService, deps.EventBus, deps.Logger)
	userService := user.NewService(userPostgres.NewPostgresRepo(deps.DB), employeeService)

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:           auth.NewHandler(base, authService),
		RBAC:           auth.NewRBACAuthorization(auth.NewPermissionChecker(), deps.Logger),
		User:           user.NewHandler(base, userService),
		Employee:       employee.NewHandler(base, employeeService),
		Designation:    designation.NewHandler(base, designationService),
		Question:       question.NewHandler(base, questionService),
		Feedback:       feedback.NewHandler(base, feedbackService),
		Health:         rest.NewHealthHandler(map[string]rest.Pinger{"postgres": deps.DB}),
		AuthLimiter:    deps.AuthLimiter,
		OpenAPISpec:    api.OpenAPISpec,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, deps.Logger)

	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, gdb, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditHandlers(bus, lg)

	var limiter *middleware.RateLimiter
	if config.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(config.RateLimit.RequestsPerMinute, config.RateLimit.Burst)
	}

	return &Dependencies{
		Config:      config,
		DB:          db,
		Gorm:        gdb,
		Router:      chi.NewRouter(),
		EventBus:    bus,
		AuthLimiter: limiter,
		Logger:      lg,
	}, nil
}

// initDB opens one pgx pool and shares it between sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logLevel := gormLogger.Warn
	if cfg.LogQueries {
		logLevel = gormLogger.Info
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger:  gormLogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return dbConn, gdb, nil
}
