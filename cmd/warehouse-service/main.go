package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	analyticscache "github.com/pharmstock/pharmstock-backend/internal/analytics/cache"
	analyticshandler "github.com/pharmstock/pharmstock-backend/internal/analytics/handler"
	analyticsservice "github.com/pharmstock/pharmstock-backend/internal/analytics/service"
	authhandler "github.com/pharmstock/pharmstock-backend/internal/auth/handler"
	authjwt "github.com/pharmstock/pharmstock-backend/internal/auth/jwt"
	authrepo "github.com/pharmstock/pharmstock-backend/internal/auth/repository"
	authservice "github.com/pharmstock/pharmstock-backend/internal/auth/service"
	catalogevents "github.com/pharmstock/pharmstock-backend/internal/catalog/events"
	cataloghandler "github.com/pharmstock/pharmstock-backend/internal/catalog/handler"
	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	catalogservice "github.com/pharmstock/pharmstock-backend/internal/catalog/service"
	"github.com/pharmstock/pharmstock-backend/internal/migrations"
	salesevents "github.com/pharmstock/pharmstock-backend/internal/sales/events"
	saleshandler "github.com/pharmstock/pharmstock-backend/internal/sales/handler"
	salesrepo "github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	salesservice "github.com/pharmstock/pharmstock-backend/internal/sales/service"
	"github.com/pharmstock/pharmstock-backend/pkg/config"
	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/httputil"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("warehouse-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("warehouse-service", cfg.Server.Environment)
	log.Info().Msg("starting Warehouse Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := migrations.Run(context.Background(), db, log); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// RabbitMQ is optional; without it the service runs but publishes nothing
	var rmq *messaging.RabbitMQ
	var salePublisher *salesevents.SaleEventPublisher
	var catalogPublisher *catalogevents.CatalogEventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		salePublisher, err = salesevents.NewSaleEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create sale event publisher")
		}

		catalogPublisher, err = catalogevents.NewCatalogEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create catalog event publisher")
		}
	} else {
		log.Warn().Msg("RabbitMQ disabled, events will not be published")
	}

	// Redis report cache is optional; without it reports are computed fresh
	var reportCache analyticscache.ReportCache = analyticscache.NewNoopCache()
	if cfg.Redis.Addr != "" {
		redisCache, err := analyticscache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ReportTTL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		reportCache = redisCache
	} else {
		log.Warn().Msg("redis not configured, analytics reports will not be cached")
	}

	// Repositories
	medicineRepo := catalogrepo.NewMedicineRepository(db)
	alternativeRepo := catalogrepo.NewAlternativeRepository(db)
	saleRepo := salesrepo.NewSaleRepository(db)
	ledgerRepo := salesrepo.NewLedgerRepository(db)
	userRepo := authrepo.NewUserRepository(db)

	// Services
	catalogSvc := catalogservice.NewCatalogService(medicineRepo, alternativeRepo, catalogPublisher, log)
	analyticsSvc := analyticsservice.NewAnalyticsService(saleRepo, medicineRepo, reportCache, log)
	saleCatalog := salesservice.NewRepositoryCatalog(medicineRepo, alternativeRepo)
	saleEngine := salesservice.NewSaleEngine(saleCatalog, ledgerRepo, saleRepo, salePublisher, log).
		WithReportInvalidator(analyticsSvc)
	jwtManager := authjwt.NewManager(&cfg.JWT)
	authSvc := authservice.NewAuthService(userRepo, jwtManager, log)

	// Handlers
	medicineHandler := cataloghandler.NewMedicineHandler(catalogSvc, log)
	alternativeHandler := cataloghandler.NewAlternativeHandler(catalogSvc, log)
	saleHandler := saleshandler.NewSaleHandler(saleEngine, log)
	reportHandler := analyticshandler.NewReportHandler(analyticsSvc, log)
	exportHandler := analyticshandler.NewExportHandler(reportHandler, log)
	authHandler := authhandler.NewAuthHandler(authSvc, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "warehouse-service",
			"database": db.Health(req.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	authenticated := authjwt.Middleware(jwtManager)
	adminOnly := authjwt.RequireRole(authrepo.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(authenticated).Get("/me", authHandler.Me)
		})

		r.Route("/medicines", func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/", medicineHandler.List)
			r.With(adminOnly).Post("/", medicineHandler.Create)
			r.Get("/categories", medicineHandler.Categories)
			r.Get("/low-stock", medicineHandler.ListLowStock)
			r.Get("/expiring", medicineHandler.ListExpiring)
			r.Get("/barcode/{barcode}", medicineHandler.GetByBarcode)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", medicineHandler.Get)
				r.With(adminOnly).Put("/", medicineHandler.Update)
				r.With(adminOnly).Delete("/", medicineHandler.Delete)
				r.With(adminOnly).Post("/restock", medicineHandler.Restock)

				r.Get("/alternatives", alternativeHandler.List)
				r.Get("/alternatives/available", alternativeHandler.Available)
				r.With(adminOnly).Post("/alternatives", alternativeHandler.Create)
			})
		})
		r.With(authenticated, adminOnly).Delete("/alternatives/{mappingID}", alternativeHandler.Delete)

		r.Route("/sales", func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/", saleHandler.Record)
			r.Post("/batch", saleHandler.RecordBatch)
			r.Get("/", saleHandler.History)
			r.Get("/{id}/receipt", saleHandler.Receipt)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/seasonal", reportHandler.SeasonalTrends)
			r.Get("/categories", reportHandler.CategoryTrends)
			r.Get("/monthly", reportHandler.MonthlySales)
			r.Get("/forecast", reportHandler.Forecast)
			r.Get("/stockouts", reportHandler.StockoutPredictions)
			r.Get("/reorders", reportHandler.ReorderRecommendations)
			r.Get("/top-medicines", reportHandler.TopMedicines)

			r.Route("/export", func(r chi.Router) {
				r.Get("/stockouts", exportHandler.ExportStockouts)
				r.Get("/reorders", exportHandler.ExportReorders)
				r.Get("/monthly", exportHandler.ExportMonthlySales)
			})
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
