package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/clock"
	"github.com/iliyamo/parking-spot-exchange/internal/config"
	"github.com/iliyamo/parking-spot-exchange/internal/database"
	"github.com/iliyamo/parking-spot-exchange/internal/handler"
	"github.com/iliyamo/parking-spot-exchange/internal/hub"
	appmw "github.com/iliyamo/parking-spot-exchange/internal/middleware"
	"github.com/iliyamo/parking-spot-exchange/internal/queue"
	"github.com/iliyamo/parking-spot-exchange/internal/repository"
	"github.com/iliyamo/parking-spot-exchange/internal/router"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
	"github.com/iliyamo/parking-spot-exchange/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	clk := clock.System{}
	store := repository.NewStore(db)

	spotSvc := service.NewSpotService(store.Spots, store.Points, clk)
	ledger := service.NewLedger(store.Points, store.History)
	confirmer := service.NewConfirmer(store, clk, cfg.PremiumMultiplier)

	// Realtime fanout over the same nearby query handlers use.
	spotHub := hub.New(spotSvc.Nearby)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go spotHub.Run(ctx, cfg.HubSweepInterval)
	go worker.New(store.Outbox, ledger, cfg.RewardInterval).Run(ctx)
	go func() {
		if err := queue.StartSpotConfirmedConsumer(cfg.AMQPURL); err != nil {
			log.Printf("spot-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)

	limiter := appmw.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())
	router.RegisterAPI(e,
		handler.NewSpotHandler(spotSvc, spotHub),
		handler.NewNearbyHandler(spotSvc, spotHub),
		handler.NewConfirmHandler(confirmer, spotSvc, spotHub, cfg.AMQPURL),
		handler.NewPointsHandler(ledger, store.History),
		cfg.JWTSecret,
		limiter,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
