package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubsched/internal/attendance"
	"clubsched/internal/classes"
	"clubsched/internal/config"
	"clubsched/internal/docstore"
	"clubsched/internal/httpapi"
	"clubsched/internal/httpmiddleware"
	"clubsched/internal/instructors"
	"clubsched/internal/queue"
	"clubsched/internal/realtime"
	"clubsched/internal/schedule"
	"clubsched/internal/store"
	"clubsched/internal/students"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		backing docstore.Store
		feed    docstore.Feed
		pub     docstore.Publisher
		healthy func(context.Context) bool
	)

	redisClient := store.NewRedis(cfg.RedisAddr)

	switch cfg.StoreBackend {
	case "memory":
		backing = docstore.NewMemory()
		broker := docstore.NewBroker()
		feed, pub = broker, broker
		healthy = func(context.Context) bool { return true }
	case "mongo":
		mdb, err := store.NewMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = mdb.Close(context.Background()) }()
		backing = docstore.NewMongo(mdb.DB)
		rf := docstore.NewRedisFeed(redisClient.Client, "")
		feed, pub = rf, rf
		healthy = redisClient.Healthy
	default:
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		pg := docstore.NewPostgres(db.Client)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		backing = pg
		rf := docstore.NewRedisFeed(redisClient.Client, "")
		feed, pub = rf, rf
		healthy = redisClient.Healthy
	}

	notified := docstore.WithNotifier(backing, pub)

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" || cfg.StoreBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "clubsched:jobs")
	}

	classSvc := classes.NewService(notified)
	studentSvc := students.NewService(notified)
	attendanceSvc := attendance.NewService(notified)
	instructorSvc := instructors.NewService(notified)
	planner := schedule.NewPlanner(classSvc)
	committer := schedule.NewCommitter(classSvc)

	hub := realtime.NewHub(feed, []string{classes.Collection, students.Collection, attendance.Collection})
	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Printf("realtime hub stopped: %v", err)
		}
	}()

	api := &httpapi.API{
		Cfg:         cfg,
		Instructors: instructorSvc,
		Classes:     classSvc,
		Students:    studentSvc,
		Attendance:  attendanceSvc,
		Planner:     planner,
		Committer:   committer,
		Jobs:        jobs,
		Hub:         hub,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		if !healthy(c.Request.Context()) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "store": cfg.StoreBackend})
	})

	api.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for the mobile client's webview and local dev.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
