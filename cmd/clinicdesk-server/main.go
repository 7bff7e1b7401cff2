package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/api/internal/config"
	"github.com/clinicdesk/api/internal/domain/appointment"
	"github.com/clinicdesk/api/internal/domain/blockedslot"
	"github.com/clinicdesk/api/internal/domain/catalog"
	"github.com/clinicdesk/api/internal/domain/doctor"
	"github.com/clinicdesk/api/internal/domain/patient"
	"github.com/clinicdesk/api/internal/platform/assistant"
	"github.com/clinicdesk/api/internal/platform/auth"
	"github.com/clinicdesk/api/internal/platform/db"
	"github.com/clinicdesk/api/internal/platform/google"
	"github.com/clinicdesk/api/internal/platform/middleware"
	"github.com/clinicdesk/api/internal/platform/notify"
	"github.com/clinicdesk/api/internal/platform/telegram"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicdesk-server",
		Short: "Clinic booking administration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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

			count, err := db.NewMigrator(pool, dir).Up(ctx)
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

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the doctor's login account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

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

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			store := auth.NewStorePG(pool)
			if err := store.CreateAccount(ctx, &auth.Account{Email: email, PasswordHash: hash}); err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			fmt.Printf("Account %s created.\n", email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Login password")
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Outbound integrations. Each is optional; a missing credential just
	// leaves the sink out.
	var sinks []notify.Sink
	if cfg.TelegramEnabled() {
		tg, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramTimeout())
		if err != nil {
			logger.Error().Err(err).Msg("telegram disabled")
		} else {
			sinks = append(sinks, tg)
			logger.Info().Msg("telegram notifications enabled")
		}
	}
	if cfg.CalendarEnabled() || cfg.SheetsEnabled() {
		tokens, err := google.NewTokenSource(cfg.GoogleSAEmail, cfg.GoogleSAPrivateKey,
			[]string{google.ScopeCalendar, google.ScopeSheets})
		if err != nil {
			logger.Error().Err(err).Msg("google integrations disabled")
		} else {
			if cfg.CalendarEnabled() {
				cal := google.NewCalendarClient(tokens, cfg.GoogleCalendarID)
				sinks = append(sinks, google.NewCalendarSink(cal, cfg.Location()))
				logger.Info().Msg("google calendar sync enabled")
			}
			if cfg.SheetsEnabled() {
				sheets := google.NewSheetsClient(tokens, cfg.GoogleSheetID)
				sinks = append(sinks, google.NewSheetsSink(sheets))
				logger.Info().Msg("google sheets log enabled")
			}
		}
	}

	deliveryLog := notify.NewDeliveryLog(500)
	dispatcher := notify.NewDispatcher(logger, deliveryLog, sinks)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Domain services.
	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool))
	patientDir := patient.NewDirectory(patient.NewRepoPG(pool))
	serviceCat := catalog.NewCatalog(catalog.NewRepoPG(pool))
	blockCal := blockedslot.NewCalendar(blockedslot.NewRepoPG(pool))
	scheduler := appointment.NewScheduler(appointment.NewRepoPG(pool),
		patientDir, serviceCat, blockCal, doctorSvc, dispatcher)
	blockCal.SetInvalidator(scheduler)
	doctorSvc.SetInvalidator(scheduler)

	// Echo server.
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() && cfg.JWTSecret == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(cfg.JWTSecret))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	auth.NewHandler(auth.NewStorePG(pool), cfg.JWTSecret).RegisterRoutes(apiV1)
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientDir).RegisterRoutes(apiV1)
	catalog.NewHandler(serviceCat).RegisterRoutes(apiV1)
	blockedslot.NewHandler(blockCal).RegisterRoutes(apiV1)
	appointment.NewHandler(scheduler).RegisterRoutes(apiV1)
	notify.NewHandler(deliveryLog).RegisterRoutes(apiV1)
	assistant.NewHandler(assistant.New(cfg.AssistantAPIKey, cfg.AssistantModel, cfg.AssistantBaseURL)).RegisterRoutes(apiV1)

	// Graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
