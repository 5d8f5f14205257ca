package main

import (
	"log"
	"os"

	"github.com/aokimura/marketplace-backend/internal/config"
	"github.com/aokimura/marketplace-backend/internal/db"
	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/server"
	"github.com/joho/godotenv"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := conn.AutoMigrate(
		&model.Product{},
		&model.Offer{},
		&model.Order{},
		&model.Wallet{},
		&model.WalletTransaction{},
		&model.Address{},
		&model.Notification{},
	); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	srv := server.New(conn, cfg, gitSHA, buildTime)

	port := cfg.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	addr := ":" + port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
