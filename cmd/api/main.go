package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"openbands/internal/chain"
	"openbands/internal/config"
	"openbands/internal/handler"
	"openbands/internal/pkg"
	"openbands/internal/repository/mysql"
	"openbands/internal/repository/redis"
	"openbands/internal/router"
	"openbands/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}
	cfg := config.Load()

	if err := mysql.InitDB(cfg.MySQLDSN); err != nil {
		log.Fatalf("mysql init: %v", err)
	}
	if err := mysql.Migrate(mysql.DB); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	// Schema is a hard dependency; refuse to start without it.
	if err := mysql.VerifySchema(mysql.DB); err != nil {
		log.Fatalf("schema check: %v", err)
	}

	if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("redis init: %v", err)
	}
	defer redis.Close()

	reader, err := chain.NewRegistryReader(cfg.RPCURL, cfg.RegistryByType)
	if err != nil {
		log.Fatalf("registry reader: %v", err)
	}

	limiter := redis.NewRateLimitRepository(redis.Client, cfg.JoinLimit, cfg.JoinWindow)
	cache := redis.NewVoteCacheRepository()
	lock := &redis.DistLock{RDB: redis.Client}

	sender := service.LogSender
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	communitySvc := service.NewCommunityService(mysql.DB)
	membershipSvc := service.NewMembershipService(mysql.DB, reader, limiter)
	postSvc := service.NewPostService(mysql.DB, reader)
	upvoteSvc := service.NewUpvoteService(mysql.DB, reader, cache, lock)
	emailSvc := service.NewEmailService(pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	go service.NewOutboxRelayer(mysql.DB, sender).Run(jobCtx)
	go service.NewCounterReconciler(mysql.DB).Run(jobCtx)

	r := router.InitRouter(router.Handlers{
		Community: handler.NewCommunityHandler(communitySvc, membershipSvc),
		Post:      handler.NewPostHandler(postSvc),
		Upvote:    handler.NewUpvoteHandler(upvoteSvc),
		Verify:    handler.NewVerifyHandler(emailSvc),
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down")
	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
}
