// Command activityd persists staff activity entries published by the API servers.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"

	"equiploan/internal/config"
	"equiploan/internal/kafkax"
	applog "equiploan/internal/log"
	"equiploan/internal/repos"
)

func main() {
	cfg := config.Load()
	applog.SetService(cfg.ServiceName + "-activityd")
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	activity := repos.NewActivityRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaActivityTopic)
	log.Printf("[activityd] consuming %s as %s", cfg.KafkaActivityTopic, cfg.KafkaGroup)

	err = consumer.Start(ctx, func(ctx context.Context, m kafka.Message) error {
		e, err := kafkax.DecodeActivity(m)
		if err != nil {
			// poison message: log and skip so the partition keeps moving
			applog.Error(nil, "activityd.decode", err, map[string]any{"offset": m.Offset})
			return nil
		}
		if err := activity.Insert(ctx, e); err != nil {
			return err
		}
		applog.Info(nil, "activityd.stored", map[string]any{"id": e.ID, "action": string(e.ActionType)})
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}
