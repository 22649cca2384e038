package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/admin"
	"github.com/gfmartins/deliveryflow/internal/analytics"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/cart"
	"github.com/gfmartins/deliveryflow/internal/catalog"
	"github.com/gfmartins/deliveryflow/internal/messaging"
	"github.com/gfmartins/deliveryflow/internal/orders"
	"github.com/gfmartins/deliveryflow/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	metricsHandler, shutdownTelemetry, err := telemetry.Init(ctx, "deliveryflow-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Warn("failed to start runtime metrics", "error", err)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Error("REDIS_ADDR environment variable is required")
		os.Exit(1)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() { _ = redisClient.Close() }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tokenTTL = d
		}
	}
	tokens := auth.NewTokens([]byte(jwtSecret), tokenTTL)

	var events orders.Publisher
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer := messaging.NewProducer(strings.Split(kafkaBrokers, ","))
		defer func() { _ = producer.Close() }()
		events = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	// strict mode is the default; lenient transitions are an explicit
	// operator opt-in
	transitions := orders.Transitions{Strict: os.Getenv("ORDER_STATUS_FLOW") != "lenient"}

	users := auth.NewUserRepository(db)
	catalogRepo := catalog.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	resolver := access.NewResolver(catalogRepo)

	builder := orders.NewBuilder(catalogRepo, ordersRepo, events, logger)
	cartStore := cart.NewRedisStore(redisClient, cart.DefaultTTL)
	cartService := cart.NewService(cartStore, catalogRepo, builder, logger)
	stats := analytics.NewService(db, analytics.NewRedisDaily(redisClient), logger)

	authHandler := auth.NewHandler(users, tokens, logger)
	catalogHandler := catalog.NewHandler(catalogRepo, resolver, logger)
	ordersHandler := orders.NewHandler(builder, ordersRepo, resolver, transitions, events, logger)
	cartHandler := cart.NewHandler(cartService, resolver, logger)
	analyticsHandler := analytics.NewHandler(stats, resolver, logger)
	adminHandler := admin.NewHandler(users, catalogRepo, admin.NewProvisioner(db), resolver, logger)

	authenticated := auth.Middleware(tokens)
	mux := http.NewServeMux()

	public := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authenticated(telemetry.WithHTTPRoute(h)))
	}

	public("POST /auth/register", authHandler.HandleRegister)
	public("POST /auth/login", authHandler.HandleLogin)
	protected("GET /auth/me", authHandler.HandleMe)

	public("GET /restaurants", catalogHandler.HandleListRestaurants)
	public("GET /restaurants/{id}/products", catalogHandler.HandleListRestaurantProducts)
	protected("POST /products", catalogHandler.HandleCreateProduct)
	protected("GET /products/mine", catalogHandler.HandleMyProducts)
	protected("PUT /products/{id}", catalogHandler.HandleUpdateProduct)
	protected("DELETE /products/{id}", catalogHandler.HandleDeleteProduct)

	protected("GET /cart", cartHandler.HandleGet)
	protected("POST /cart/items", cartHandler.HandleAddItem)
	protected("DELETE /cart/items/{productId}", cartHandler.HandleRemoveItem)
	protected("DELETE /cart", cartHandler.HandleClear)
	protected("POST /cart/checkout", cartHandler.HandleCheckout)

	protected("POST /orders", ordersHandler.HandleCreate)
	protected("GET /orders/client", ordersHandler.HandleListClient)
	protected("GET /orders", ordersHandler.HandleListClient)
	protected("GET /orders/restaurant", ordersHandler.HandleListRestaurant)
	protected("GET /orders/{id}", ordersHandler.HandleGet)
	protected("GET /orders/{id}/status", ordersHandler.HandleGetStatus)
	protected("PUT /orders/{id}/status", ordersHandler.HandleUpdateStatus)

	protected("GET /analytics/restaurant/today", analyticsHandler.HandleRestaurantToday)
	protected("GET /admin/analytics/daily-transactions", analyticsHandler.HandleDailyReport)

	protected("GET /admin/users", adminHandler.HandleListUsers)
	protected("POST /admin/users", adminHandler.HandleCreateUser)
	protected("DELETE /admin/users/{id}", adminHandler.HandleDeleteUser)
	protected("GET /admin/restaurants", adminHandler.HandleListRestaurants)
	protected("POST /admin/restaurants", adminHandler.HandleCreateRestaurant)
	protected("DELETE /admin/restaurants/{id}", adminHandler.HandleDeleteRestaurant)

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	corsOptions := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsOptions.AllowedOrigins = strings.Split(origins, ",")
	} else {
		corsOptions.AllowedOrigins = []string{"*"}
	}

	handler := cors.New(corsOptions).Handler(mux)
	handler = otelhttp.NewHandler(handler, "api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
