package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"studyhub/internal/auth"
	"studyhub/internal/config"
	"studyhub/internal/database"
	"studyhub/internal/handlers"
	"studyhub/internal/notify"
	"studyhub/internal/realtime"
	"studyhub/internal/scheduler"
	"studyhub/internal/services"
	"studyhub/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
)

func main() {
	// .env is for local development; production sets real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	if err := auth.InitCrypto(); err != nil {
		log.Fatal("Failed to initialize token encryption: ", err)
	}
	if err := auth.InitOAuth(); err != nil {
		log.Fatal("Failed to initialize OAuth: ", err)
	}

	if err := database.InitDB(cfg.DBDriver, cfg.SQLitePath); err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}

	rdb := connectRedis(cfg)
	st := store.New(database.GetDB())
	presence := realtime.NewPresence(rdb)
	hub := realtime.NewHub(st, presence)

	var mailer notify.Mailer
	if cfg.EmailNotificationsEnabled {
		mailer = services.NewEmailService()
	}
	dispatcher := notify.NewDispatcher(st, hub, mailer, cfg.EmailNotificationsEnabled)
	scan := scheduler.NewReminderScan(st, dispatcher)

	sched := scheduler.New(nil)
	sched.AddEvery("reminder-scan", time.Minute, scan.Tick)
	sched.AddDaily("streak-update", 0, 10, scheduler.StreakJob(st))
	sched.AddDaily("report-generation", 0, 20, scheduler.ReportJob(st))
	sched.AddWeekly("notification-cleanup", time.Sunday, 3, 0, scheduler.CleanupJob(st))
	sched.Start()

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1"})
	handlers.RegisterRoutes(router, &handlers.API{
		Hub:         hub,
		Presence:    presence,
		Cache:       rdb,
		FrontendURL: cfg.FrontendURL,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error: server shutdown failed: %v", err)
	}

	sched.Stop()
	hub.Close()
	if rdb != nil {
		rdb.Close()
	}
	log.Println("Shutdown complete")
}

// connectRedis is optional infrastructure: presence and the leaderboard
// cache degrade gracefully without it
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis unavailable at %s, presence disabled: %v", cfg.RedisAddr, err)
		rdb.Close()
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
