package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/config"
	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/modules/versioning"
	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/obs/metrics"
	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/server"
	miniostorage "github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/storage/minio"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}

	m := metrics.New()

	// --- Object Storage ------------------------------------------------------
	store, err := miniostorage.New(miniostorage.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
	}, log, m)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	log.Infof("bucket %q is ready", cfg.S3Bucket)

	if enabled, err := store.VersioningEnabled(ctx); err != nil {
		log.WithError(err).Warn("could not read bucket versioning status")
	} else if !enabled {
		log.Warn("bucket versioning is not enabled; version history endpoints will only see current objects")
	}

	// --- Layers --------------------------------------------------------------
	svc := versioning.NewService(store)
	handler := versioning.NewHandler(svc)

	e := server.New(handler, m)

	// --- Graceful shutdown ---------------------------------------------------
	go func() {
		addr := ":" + cfg.ServerPort
		log.Infof("starting server on %s", addr)
		if err := e.Start(addr); err != nil {
			log.Infof("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down …")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return e.Shutdown(shutdownCtx)
}
