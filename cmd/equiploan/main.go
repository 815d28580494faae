package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"equiploan/internal/config"
	"equiploan/internal/http/handlers"
	"equiploan/internal/kafkax"
	applog "equiploan/internal/log"
	"equiploan/internal/redisx"
	"equiploan/internal/repos"
	"equiploan/internal/services"
	"equiploan/web"
)

func main() {
	cfg := config.Load()
	applog.SetService(cfg.ServiceName)

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if cfg.SeedDemoUsers {
		if err := repos.SeedDemoUsers(db); err != nil {
			log.Fatal(err)
		}
		log.Printf("[warn] SEED_DEMO_USERS is on; demo accounts share a known password")
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatal(err)
		}
		secret = []byte(hex.EncodeToString(b))
		log.Printf("[warn] JWT_SECRET not set; tokens will not survive a restart")
	}
	authSvc := services.NewAuthService(repos.NewUserRepo(db), secret, cfg.TokenTTL)

	// ---------- Side channels ----------
	var backends handlers.Backends
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		if err := redisx.Ping(context.Background(), rdb); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		backends.Cart = redisx.NewCartStore(rdb)
		backends.Invalidator = redisx.NewInvalidator(rdb)
		log.Printf("[redis] carts and invalidation via %s", cfg.RedisAddr)
	}
	var producers []*kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		activityP := kafkax.NewProducer(cfg.KafkaBrokers, cfg.KafkaActivityTopic, 1024)
		notifyP := kafkax.NewProducer(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, 1024)
		producers = append(producers, activityP, notifyP)
		backends.Activity = &kafkax.ActivityPublisher{P: activityP, Service: cfg.ServiceName}
		backends.Notifier = &kafkax.Notifier{P: notifyP, Service: cfg.ServiceName}
		log.Printf("[kafka] activity -> %s, notifications -> %s", cfg.KafkaActivityTopic, cfg.KafkaNotifyTopic)
	}

	deps := handlers.NewDeps(db, cfg, authSvc, backends)

	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "คำขอมากเกินไป กรุณาลองใหม่ภายหลัง"})
		},
	}))
	app.Use(handlers.CSRF())

	deps.Mount(app, authSvc)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := repos.Ping(c.UserContext(), db); err != nil {
			applog.Error(c, "health.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "ไม่พบหน้าที่ต้องการ"})
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[server] listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Printf("[server] shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
	// drain queued activity before the producers go away
	deps.ActivityLog.Close()
	for _, p := range producers {
		p.Close()
		p.WaitClosed()
	}
}
