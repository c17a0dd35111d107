package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-restaurant-pos/config"
	"go-restaurant-pos/controllers"
	"go-restaurant-pos/database"
	"go-restaurant-pos/helpers"
	"go-restaurant-pos/logger"
	"go-restaurant-pos/mirror"
	"go-restaurant-pos/payment"
	"go-restaurant-pos/realtime"
	"go-restaurant-pos/routes"
	"go-restaurant-pos/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log := logger.New("restaurant-pos", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("shutdown", "service stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.Connect(connectCtx, cfg.Mongo.URL, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			log.Error("db_close", "failed to disconnect from mongodb", err)
		}
	}()
	if err := db.RequireTransactions(connectCtx); err != nil {
		return err
	}
	if err := db.EnsureIndexes(connectCtx); err != nil {
		return err
	}
	log.Info("db_connected", "connected to mongodb", slog.String("database", cfg.Mongo.Database))

	hub := realtime.NewHub(cfg.AllowedOrigins, log)

	var store mirror.Store = mirror.Discard{}
	if cfg.Firebase.DatabaseURL != "" {
		fb, err := mirror.NewFirebaseStore(connectCtx, cfg.Firebase.DatabaseURL, cfg.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
		store = fb
		log.Info("mirror_connected", "mirroring orders to firebase", slog.String("url", cfg.Firebase.DatabaseURL))
	} else {
		log.Warn("mirror_disabled", "FIREBASE_DATABASE_URL not set, order mirror disabled")
	}
	publisher := mirror.NewPublisher(store, hub, cfg.Firebase.Timeout, log)

	tableStore := database.NewTableStore(db)
	orderStore := database.NewOrderStore(db)
	tables := services.NewTableService(tableStore, orderStore, log)
	orders := services.NewOrderService(
		orderStore,
		tables,
		database.NewMenuCatalog(db),
		publisher,
		payment.NewRouter(payment.Terminal{MinCodeLength: cfg.Payment.CardCodeMinLength}),
		log,
	)
	stock := services.NewStockService(database.NewStockStore(db), log)

	if _, err := tables.EnsureTakeawayTable(connectCtx); err != nil {
		return err
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	})

	ctl := controllers.New(tables, orders, stock, db, log, cfg.RequestTimeout)
	routes.Register(router, ctl, hub, helpers.NewTokenHelper(cfg.SecretKey, 0), log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("service_started", "restaurant pos listening", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown", "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
