package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tourmarket/internal/config"
	"tourmarket/internal/database"
	"tourmarket/internal/gateway"
	"tourmarket/internal/middleware"
	"tourmarket/internal/modules/admin"
	"tourmarket/internal/modules/auth"
	"tourmarket/internal/modules/booking"
	"tourmarket/internal/modules/listing"
	"tourmarket/internal/modules/payment"
	"tourmarket/internal/modules/rating"
	"tourmarket/internal/modules/review"
	jwtsvc "tourmarket/internal/pkg/jwt"
	"tourmarket/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	stripe := gateway.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.GatewayTimeout)

	authService := auth.NewService(userRepo, j, logger)
	authHandler := auth.NewHandler(authService)

	listingService := listing.NewService(listingRepo, logger)
	listingHandler := listing.NewHandler(listingService)

	ratingService := rating.NewService(listingRepo, bookingRepo, cfg.PlatformFeePercent, logger)
	ratingHandler := rating.NewHandler(ratingService)

	paymentService := payment.NewService(paymentRepo, bookingRepo, stripe, logger)
	paymentHandler := payment.NewHandler(paymentService)

	bookingService := booking.NewService(bookingRepo, listingRepo, userRepo, paymentService, logger)
	bookingHandler := booking.NewHandler(bookingService)

	reviewService := review.NewService(reviewRepo, bookingRepo, ratingService, logger)
	reviewHandler := review.NewHandler(reviewService)

	adminService := admin.NewService(userRepo, listingRepo, bookingRepo, paymentRepo, cfg.PlatformFeePercent, logger)
	adminHandler := admin.NewHandler(adminService)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		listingHandler.RegisterPublicRoutes(v1)
		reviewHandler.RegisterPublicRoutes(v1)
		paymentHandler.RegisterWebhook(v1)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			authHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			reviewHandler.RegisterRoutes(protected)

			guide := protected.Group("/")
			guide.Use(middleware.GuideOnly())
			{
				listingHandler.RegisterGuideRoutes(guide)
				ratingHandler.RegisterRoutes(guide)
			}

			adm := protected.Group("/admin")
			adm.Use(middleware.AdminOnly())
			{
				adminHandler.RegisterRoutes(adm)
				ratingHandler.RegisterAdminRoutes(adm)
				reviewHandler.RegisterAdminRoutes(adm)
			}
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Error("closing database failed", zap.Error(err))
	}
}
