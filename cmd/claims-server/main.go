package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/claimflow/claimflow/internal/config"
	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/domain/claim"
	"github.com/claimflow/claimflow/internal/domain/eob"
	"github.com/claimflow/claimflow/internal/domain/refdata"
	"github.com/claimflow/claimflow/internal/domain/workflow"
	"github.com/claimflow/claimflow/internal/platform/audit"
	"github.com/claimflow/claimflow/internal/platform/auth"
	"github.com/claimflow/claimflow/internal/platform/db"
	"github.com/claimflow/claimflow/internal/platform/middleware"
	"github.com/claimflow/claimflow/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claims-server",
		Short: "Claims adjudication API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(processCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the claims API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// processCmd runs a single claim through adjudication from the command
// line, printing the compiled result as JSON.
func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <claim-id>",
		Short: "Adjudicate a single claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claimID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid claim id %q", args[0])
			}
			workflowType, _ := cmd.Flags().GetString("type")
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			app := buildApp(pool, cfg, logger)
			result, err := app.orchestrator.ProcessClaim(ctx, claimID, workflow.ProcessOptions{
				WorkflowType:   workflowType,
				Initiator:      "cli",
				ForceReprocess: force,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().String("type", "", "Workflow type override (standard, expedited, manual_review, investigation)")
	cmd.Flags().Bool("force", false, "Reprocess a claim that already has a terminal disposition")
	return cmd
}

// app bundles the wired domain services so serve and process share one
// construction path.
type app struct {
	claimService *claim.Service
	claimHandler *claim.Handler
	orchestrator *workflow.Orchestrator
	batch        *workflow.BatchSubmitter
	wfHandler    *workflow.Handler
	notifHandler *notification.NotificationHandler
}

func buildApp(pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) *app {
	claimRepo := claim.NewRepoPG(pool)
	claimSvc := claim.NewService(claimRepo)

	refProvider := refdata.NewRepoPG(pool)

	manager := notification.NewNotificationManager(
		&notification.LogEmailSender{Logger: logger},
		&notification.LogSMSSender{Logger: logger},
		notification.NewTemplateEngine(),
	)
	alertRouter := notification.NewAlertRouter(manager, logger)

	recorder := audit.MultiRecorder{
		audit.NewLogRecorder(logger),
		audit.NewPGRecorder(pool),
	}

	orch := workflow.NewOrchestrator(workflow.Deps{
		Claims:      claimSvc,
		Refdata:     refProvider,
		Eligibility: adjudication.NewEligibilityChecker(refProvider, logger),
		Necessity:   adjudication.NewNecessityValidator(refProvider, logger),
		Fraud:       adjudication.NewFraudAnalyzer(refProvider, logger),
		Financial:   adjudication.NewFinancialCalculator(refProvider, logger),
		Engine:      adjudication.NewEngine(logger),
		EOB:         eob.NewGenerator(logger),
		History:     workflow.NewHistoryPG(pool),
		Audit:       recorder,
		Notifier:    alertRouter,
		Registry:    workflow.NewRegistry(),
		Logger:      logger,
	}, workflow.ConfigFromApp(cfg))

	batch := workflow.NewBatchSubmitter(orch, cfg.QueueDrainInterval, cfg.QueueBatchSize, logger)

	return &app{
		claimService: claimSvc,
		claimHandler: claim.NewHandler(claimSvc),
		orchestrator: orch,
		batch:        batch,
		wfHandler:    workflow.NewHandler(orch, batch),
		notifHandler: notification.NewNotificationHandler(manager),
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	return logger
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	appSvc := buildApp(pool, cfg, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.BatchBodyLimit))
	e.Use(middleware.RequestTimeout(cfg.HTTPRequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	e.Use(middleware.Audit(logger))

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	appSvc.claimHandler.RegisterRoutes(apiV1)
	appSvc.wfHandler.RegisterRoutes(apiV1)

	notifGroup := apiV1.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleMemberServices))
	appSvc.notifHandler.RegisterRoutes(notifGroup)

	batchCtx, batchCancel := context.WithCancel(ctx)
	defer batchCancel()
	appSvc.batch.Start(batchCtx)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	appSvc.batch.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
