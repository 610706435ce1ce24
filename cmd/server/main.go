package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"villageOrderTracking/internal/config"
	"villageOrderTracking/internal/db"
	"villageOrderTracking/internal/localstore"
	"villageOrderTracking/internal/logging"
	"villageOrderTracking/internal/mirror"
	"villageOrderTracking/internal/server"
	"villageOrderTracking/repository"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logging.New()

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Infof("configuration loaded: %v", cfg)

	// Open local store
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Errorf("close db: %v", err)
		}
	}()
	store := localstore.New(d)

	// The mirror is optional. When it cannot be reached the application
	// runs local-only and keeps serving.
	var m repository.Mirror
	var rd *mirror.Redis
	if cfg.MirrorEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rd, err = mirror.Connect(ctx, cfg.Redis.Addr)
		cancel()
		if err != nil {
			log.Warnf("mirror unavailable, running local-only: %v", err)
		} else {
			m = rd
			defer func() {
				if err := rd.Close(); err != nil {
					log.Errorf("close mirror: %v", err)
				}
			}()
		}
	}

	orders := repository.NewOrderRepository(store, m, log)
	village := repository.NewVillageState(store, m, log)

	ctx := context.Background()
	if err := orders.Load(ctx); err != nil {
		log.Fatalf("load orders: %v", err)
	}
	if err := village.Load(ctx); err != nil {
		log.Fatalf("load village state: %v", err)
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: server.New(orders, village, cfg.Auth.JWTSecret, log).Router(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve http: %v", err)
		}
	}()
	log.Infof("http server listening on %s", cfg.HTTP.Address)

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}

	// Drain pending mirror writes before exiting.
	orders.Close()
	village.Close()
}
