package main

import (
	"context"
	"log"
	"log/slog"

	"keepfile/config"
	"keepfile/db"
	"keepfile/handlers"
	"keepfile/models"
	"keepfile/server"
	"keepfile/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	logger := config.SetupLogger(cfg)

	// Initialize key components
	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run Migrations
	if err := models.Migrate(database); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	var blobs handlers.BlobStore
	var publicDir string
	switch cfg.StorageDriver {
	case "s3":
		blobs, err = storage.NewS3(context.Background(), storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		var disk *storage.Disk
		disk, err = storage.NewDisk(cfg.StorageDir)
		blobs, publicDir = disk, cfg.StorageDir
	}
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	logger.Info("Blob storage ready", slog.String("driver", cfg.StorageDriver))

	records := models.NewKeepfileStore(database)
	router := server.NewRouter(cfg, logger, server.Deps{
		Keepfiles: handlers.NewKeepfileHandler(records, blobs, logger),
		DB:        records,
		PublicDir: publicDir,
	})

	if err := server.New(cfg, logger, router).Run(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
