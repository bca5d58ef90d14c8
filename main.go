package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel-meals/config"
	"hostel-meals/controllers"
	"hostel-meals/routes"
	"hostel-meals/store"
	"hostel-meals/utils"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := utils.NewLogger(os.Stdout, cfg.IsProduction())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("MongoDB connection error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("MongoDB disconnect error", slog.String("error", err.Error()))
		}
	}()

	db := store.New(client.Database(cfg.MongoDatabase), logger)
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := db.SeedAdmins(ctx, cfg.Admins()); err != nil {
		logger.Error("admin seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Optional collaborators
	var verifier utils.IdentityVerifier
	if cfg.FirebaseProjectID != "" || cfg.FirebaseCredentialsFile != "" {
		fv, err := utils.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
		if err != nil {
			logger.Warn("firebase sign in disabled", slog.String("error", err.Error()))
		} else {
			verifier = fv
		}
	}
	processor := utils.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeCurrency)
	if processor == nil {
		logger.Warn("STRIPE_SECRET_KEY not set, payment intents disabled")
	}
	mailer := utils.NewEmailService(cfg.SendGridAPIKey, cfg.EmailSender, logger)

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", slog.String("error", err.Error()))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// Initialize controllers
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL())
	rs := controllers.NewResponder(logger, cfg.ConflictStatus, cfg.RequestTimeout())
	ctrls := routes.Controllers{
		Users:    controllers.NewUserController(db, issuer, verifier, rs),
		Meals:    controllers.NewMealController(db, rs),
		Upcoming: controllers.NewUpcomingController(db, db, cfg.PublishMinLikes, rs),
		Requests: controllers.NewMealRequestController(db, db, rs),
		Reviews:  controllers.NewReviewController(db, db, rs),
		Payments: controllers.NewPaymentController(db, db, processor, mailer, controllers.PaymentOptions{
			StrictPackageNames: cfg.StrictPackageNames,
			AllowDowngrade:     cfg.AllowTierDowngrade,
			VerifyIntents:      cfg.VerifyPaymentIntents,
		}, rs),
		Dashboard: controllers.NewDashboardController(db, cfg.AllowTierDowngrade, rs),
	}
	router := routes.NewRouter(ctrls, routes.Guards{
		Issuer:        issuer,
		Users:         db,
		Redis:         rdb,
		RatePerMinute: cfg.RateLimitPerMinute,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.Handler(router, cfg.Origins()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server is running", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
