package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldreport-backend/internal/actacache"
	"fieldreport-backend/internal/cleanup"
	"fieldreport-backend/internal/config"
	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/handlers"
	"fieldreport-backend/internal/logging"
	"fieldreport-backend/internal/middleware"
	"fieldreport-backend/internal/reconcile"
	"fieldreport-backend/internal/remote"
	"fieldreport-backend/internal/services"
	"fieldreport-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := database.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB, log)
	cancel()
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Disconnect(disconnectCtx); err != nil {
			log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	store, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatal("storage client failed", zap.Error(err))
	}

	actas := actacache.NewMemory(cfg.ActaTTL)
	actas.StartSweeper(ctx, time.Minute)

	queue := cleanup.NewQueue(store, db, log)
	go queue.Run(ctx)

	reconciler := reconcile.New(store, db, cfg.ReconcileMinAge, log)
	go reconciler.Run(ctx, cfg.ReconcileInterval)

	fetcher := remote.NewClient(30 * time.Second)
	reportService := services.NewReportService(db, store, fetcher, actas, queue,
		cfg.LogoPrimaryURL, cfg.LogoSecondaryURL, log)
	informeService := services.NewInformeService(db, store, log)

	authHandler := handlers.NewAuthHandler(db, log)
	evidenceHandler := handlers.NewEvidenceHandler(db, store, log)
	actaHandler := handlers.NewActaHandler(store, actas, log)
	reportHandler := handlers.NewReportHandler(reportService, log)
	informesHandler := handlers.NewInformesHandler(db, store, informeService, log)
	tiendasHandler := handlers.NewTiendasHandler(db, log)
	healthHandler := handlers.NewHealthHandler()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-Sesion-Id"},
	}))

	router.GET("/health", healthHandler.Health)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/imagenes/subir", evidenceHandler.Subir)

	acta := router.Group("/acta")
	acta.POST("/subir", actaHandler.Subir)
	acta.GET("/:sesionId", actaHandler.Snapshot)
	acta.DELETE("/:sesionId/item", actaHandler.DeleteItem)
	acta.DELETE("/:sesionId", actaHandler.Clear)

	pdf := router.Group("/pdf")
	pdf.GET("/generar/:sesionId", reportHandler.Generar)
	pdf.POST("/session/reset/:sesionId", reportHandler.Reset)

	informes := router.Group("/informes")
	informes.GET("", middleware.RequireAdmin(db, log), informesHandler.List)
	informes.GET("/utils/ultimo-por-sesion",
		middleware.RequireSelfOrAdmin(db, "sesionId", log), informesHandler.UltimoPorSesion)
	informes.GET("/:id", middleware.RequireAdmin(db, log), informesHandler.GetByID)
	informes.DELETE("/:id", middleware.RequireSession(db, log), informesHandler.Delete)
	informes.POST("/bulk-delete", middleware.RequireSession(db, log), informesHandler.BulkDelete)

	tiendas := router.Group("/tiendas")
	tiendas.GET("", tiendasHandler.List)
	tiendas.GET("/regionales", tiendasHandler.Regionales)
	tiendas.GET("/ciudades", tiendasHandler.Ciudades)
	tiendas.GET("/departamentos", tiendasHandler.Departamentos)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
