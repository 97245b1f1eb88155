package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/analytics"
	"storefront/internal/analytics/analytics_api"
	analyticsdb "storefront/internal/analytics/db"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/cart/cart_api"
	"storefront/internal/catalog"
	"storefront/internal/catalog/catalog_api"
	catalogdb "storefront/internal/catalog/db"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/database/migrations"
	"storefront/internal/kafka"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order"
	orderdb "storefront/internal/order/db"
	"storefront/internal/order/order_api"
	"storefront/internal/payment"
	"storefront/internal/receipt"
	"storefront/internal/sse"
	"storefront/internal/teamaccess"
	teamaccessdb "storefront/internal/teamaccess/db"
	"storefront/internal/teamaccess/teamaccess_api"
	"storefront/internal/users"
	usersdb "storefront/internal/users/db"
	"storefront/internal/users/users_api"
	"storefront/internal/utils"
	"storefront/internal/verification"
	verificationdb "storefront/internal/verification/db"
	vredis "storefront/internal/verification/redis"
	"storefront/internal/verification/verification_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
)

// publisher is satisfied by both the Kafka producer and the disabled stand-in.
type publisher interface {
	PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error
	PublishSMS(ctx context.Context, req models.SMSRequest) error
	Close() error
}

func migrate(ctx context.Context, bunDB *bun.DB, cfg config.DatabaseConfig, log *logger.Logger) {
	if !cfg.AutoMigrate {
		log.Info("DATABASE", "Auto-migration disabled, creating missing tables from models")
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.Options{Dir: cfg.MigrationsDir}, log)
	defer runner.Close()
	if err := runner.Up(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return client
}

func newPublisher(cfg config.KafkaConfig, log *logger.Logger) publisher {
	if !cfg.Enabled {
		log.Warn("KAFKA", "Kafka disabled, order events and SMS requests will only be logged")
		return &kafka.NoopPublisher{Logger: log}
	}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, cfg.Topics.All(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Brokers))
	return kafka.NewProducer(cfg.Brokers, cfg.Topics, log)
}

func newPaymentGateway(cfg config.StripeConfig, log *logger.Logger) order.PaymentGateway {
	if !cfg.Enabled() {
		log.Warn("PAYMENT", "STRIPE_SECRET_KEY not set, card checkout disabled")
		return payment.Disabled{}
	}
	log.Info("PAYMENT", fmt.Sprintf("Stripe card payments enabled (%s)", cfg.Currency))
	return payment.NewStripeGateway(cfg, log, nil)
}

func newVerifier(ctx context.Context, cfg config.AuthConfig, issuer *auth.Issuer, log *logger.Logger) auth.Verifier {
	chain := auth.ChainVerifier{&auth.HMACVerifier{Issuer: issuer}}
	if cfg.OIDCIssuer == "" {
		return chain
	}
	oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	if err != nil {
		log.Error("AUTH", fmt.Sprintf("OIDC disabled: %v", err))
		return chain
	}
	log.Info("AUTH", fmt.Sprintf("Accepting team tokens from %s", cfg.OIDCIssuer))
	return append(chain, oidcVerifier)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	logDir := cfg.Log.Dir
	if !cfg.Log.ToFile {
		logDir = ""
	}
	log := logger.NewLogger(logDir)
	defer log.Close()

	log.Info("APP", "Starting storefront initialization")
	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	migrate(ctx, bunDB, cfg.Database, log)

	redisClient := connectRedis(ctx, cfg.Redis, log)
	defer redisClient.Close()

	events := newPublisher(cfg.Kafka, log)
	defer events.Close()

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	feed := sse.NewOrderFeed()

	catalogService := catalog.NewService(&catalogdb.DB{Bun: bunDB})
	cartService := cart.NewService(&catalogdb.DB{Bun: bunDB}, cart.Pricing{
		ShippingFee:           cfg.Checkout.ShippingFee,
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
	})
	usersService := users.NewService(&usersdb.DB{Bun: bunDB})
	verificationService := verification.NewService(
		&verificationdb.DB{Bun: bunDB},
		vredis.NewCooldown(redisClient, cfg.Verification.ResendCooldown),
		events,
		cfg.Verification,
		log,
	)
	orderService := order.NewService(
		&orderdb.DB{Bun: bunDB},
		cartService,
		verificationService,
		newPaymentGateway(cfg.Stripe, log),
		events,
		feed,
		log,
	)
	teamAccessService := teamaccess.NewService(&teamaccessdb.DB{Bun: bunDB}, issuer, log)
	analyticsService := analytics.NewService(&analyticsdb.DB{Bun: bunDB}, time.Local)

	catalogHandler := catalog_api.NewHandler(catalogService, log)
	cartHandler := cart_api.NewHandler(cartService, log)
	usersHandler := users_api.NewHandler(usersService, log)
	verificationHandler := verification_api.NewHandler(verificationService, log)
	orderHandler := order_api.NewHandler(
		orderService,
		feed,
		receipt.NewQRGenerator(cfg.Receipt.QRSecret),
		receipt.NewPDFGenerator(cfg.Receipt),
		log,
	)
	teamAccessHandler := teamaccess_api.NewHandler(teamAccessService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(log.Middleware)
	r.Use(auth.Optional(newVerifier(ctx, cfg.Auth, issuer, log), log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	catalogHandler.RegisterPublicRoutes(r)
	cartHandler.RegisterRoutes(r)
	usersHandler.RegisterRoutes(r)
	verificationHandler.RegisterRoutes(r)
	orderHandler.RegisterPublicRoutes(r)
	teamAccessHandler.RegisterPublicRoutes(r)
	log.Info("ROUTER", "Public routes registered")

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireTeam)
		catalogHandler.RegisterTeamRoutes(r)
		orderHandler.RegisterTeamRoutes(r)
		teamAccessHandler.RegisterTeamRoutes(r)
		analyticsHandler.RegisterRoutes(r)
		log.Info("ROUTER", "Team routes registered behind bearer auth")
	})

	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// no WriteTimeout: it would cut the order stream
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Storefront running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
	log.Info("APP", "Storefront stopped")
}
