package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"clubsched/internal/attendance"
	"clubsched/internal/classes"
	"clubsched/internal/config"
	"clubsched/internal/docstore"
	"clubsched/internal/queue"
	"clubsched/internal/store"
)

// Worker consumes recount jobs and refreshes each class's
// currentParticipants from its present attendance records.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var backing docstore.Store
	switch cfg.StoreBackend {
	case "mongo":
		mdb, err := store.NewMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("mongo connect failed: %v", err)
		}
		defer func() { _ = mdb.Close(context.Background()) }()
		backing = docstore.NewMongo(mdb.DB)
	default:
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		backing = docstore.NewPostgres(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	jobs := queue.NewRedisQueue(redisClient.Client, "clubsched:jobs")

	classSvc := classes.NewService(backing)
	attendanceSvc := attendance.NewService(backing)

	messages, err := jobs.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeRecount {
			continue
		}
		job, err := queue.DecodeRecount(msg)
		if err != nil {
			log.Printf("bad recount job: %v", err)
			continue
		}

		count, err := attendanceSvc.CountPresent(ctx, job.ClassID, job.ClassDate)
		if err != nil {
			log.Printf("recount for class %s failed: %v", job.ClassID, err)
			continue
		}
		if err := classSvc.SetCurrentParticipants(ctx, job.ClassID, count); err != nil {
			log.Printf("update participants for class %s failed: %v", job.ClassID, err)
			continue
		}
		log.Printf("class %s on %s: %d present", job.ClassID, job.ClassDate, count)
	}

	log.Println("worker stopped")
}
