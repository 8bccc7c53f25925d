package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pooldraw/config"
	"pooldraw/controllers"
	"pooldraw/db"
	"pooldraw/game"
	"pooldraw/models"
	"pooldraw/routes"
	"pooldraw/store"
	"pooldraw/websocket"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	db.ConnectDB(cfg.MongoURI)
	database := db.GetDB(cfg.DBName)

	st := store.New(database)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}
	cancel()

	hub := models.NewHub()
	go hub.Run()

	engine := game.NewEngine(
		game.NewTierRegistry(game.DefaultTiers()...),
		st, st,
		websocket.NewHubPublisher(hub),
	)

	scheduler, err := game.NewScheduler(engine, cfg.TickInterval)
	if err != nil {
		log.Fatalf("failed to build scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	r := gin.Default()
	routes.GameRoutes(r, controllers.NewGameController(engine))
	routes.WalletRoutes(r, controllers.NewWalletController(st))
	routes.WebSocketRoutes(r, hub, engine)

	log.Println("Server running on port", cfg.ServerPort)
	r.Run(":" + cfg.ServerPort)
}
