package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/palletscan-services/configs"
	nats "github.com/avvvet/palletscan-services/internal/nats"
	"github.com/avvvet/palletscan-services/internal/scansvc/broker"
	scanconfig "github.com/avvvet/palletscan-services/internal/scansvc/config"
	"github.com/avvvet/palletscan-services/internal/scansvc/db"
	handlers "github.com/avvvet/palletscan-services/internal/scansvc/handlers"
	"github.com/avvvet/palletscan-services/internal/scansvc/service"
	"github.com/avvvet/palletscan-services/internal/scansvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "scan"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
}

func main() {
	cfg, err := scanconfig.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// pg connection
	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	ctx := context.Background()
	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	st := store.New(dbpool)

	userService := service.NewUserService(st.Users)
	if err := userService.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// events are best effort, the api keeps serving without NATS
	var pub service.Publisher
	n, err := nats.Connect(SERVICE_NAME + "_service_" + instanceId)
	if err != nil {
		log.Warnf("unable to connect to NATS server, live events disabled: %v", err)
	} else {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		pub = broker.NewBroker(n.Conn)
	}

	scanService := service.NewScanService(st.Scans, pub)
	palletService := service.NewPalletService(st.Pallets, pub)
	skuService := service.NewSkuService(st.Skus, st.Pallets, pub)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(scanService, palletService, skuService, userService)
	h.InitAuth(cfg.JWTSecret, cfg.TokenTTL)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
