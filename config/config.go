package config

import (
	"os"
	"strconv"
	"time"

	"pooldraw/game"
)

type Config struct {
	MongoURI     string
	DBName       string
	ServerPort   string
	TickInterval time.Duration
}

func Load() *Config {
	tickSeconds, err := strconv.Atoi(getEnv("TICK_INTERVAL_SECONDS", "5"))
	if err != nil || tickSeconds <= 0 {
		tickSeconds = int(game.DefaultTickInterval.Seconds())
	}
	return &Config{
		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:       getEnv("DB_NAME", "pooldraw"),
		ServerPort:   getEnv("PORT", "5000"),
		TickInterval: time.Duration(tickSeconds) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
