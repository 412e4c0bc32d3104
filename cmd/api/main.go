package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"fourmen-shop/internal/api"
	"fourmen-shop/internal/config"
	"fourmen-shop/internal/database"
	"fourmen-shop/internal/inventory"
	"fourmen-shop/internal/repo"
	"fourmen-shop/internal/service"
	"fourmen-shop/internal/vnpay"
	"fourmen-shop/internal/worker"
)

func main() {
	cfg := config.Load()
	if cfg.VNPay.TmnCode == "" || cfg.VNPay.HashSecret == "" {
		log.Fatal("VNPAY_TMN_CODE and VNPAY_HASH_SECRET are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.NewPostgres()
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	orderRepo := repo.NewOrderRepo(db)
	catalogRepo := repo.NewCatalogRepo(db)
	stock := inventory.NewService(catalogRepo)
	signer := vnpay.NewSigner(cfg.VNPay)

	checkout := service.NewCheckoutService(db, orderRepo, stock, signer)
	reconciler := service.NewReconciler(db, orderRepo, stock)

	sweeper := worker.NewSweeper(db, orderRepo, stock, cfg.Sweeper.Interval, cfg.Sweeper.Cutoff)
	go sweeper.Run(ctx)

	handler := api.NewHandler(checkout, reconciler, signer, database.NewService(db), cfg.Checkout.ResultURL)
	router := api.SetupRouter(handler, cfg.Server.GinMode)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		log.Printf("server listening on %s", addr)
		if err := router.Run(addr); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
}
