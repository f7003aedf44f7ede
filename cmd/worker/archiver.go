package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hookgw/hookgw/internal/archiver"
	"github.com/hookgw/hookgw/internal/config"
	"github.com/hookgw/hookgw/internal/db"
	"github.com/hookgw/hookgw/internal/kafka"
	"github.com/hookgw/hookgw/internal/logger"
	"github.com/hookgw/hookgw/internal/repository"
	"github.com/spf13/cobra"
)

var archiverCmd = &cobra.Command{
	Use:   "archiver",
	Short: "Consume captured requests from Kafka into the ClickHouse archive",
	RunE:  runArchiver,
}

func runArchiver(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Log.Level)

	// 2) ClickHouse connection
	chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer chDB.Close()

	archiveRepo := repository.NewCHRequestsRepository(chDB)

	// 3) kafka consumer
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "hookgw-archiver"
	}
	topic := cfg.Kafka.CapturedTopic
	if topic == "" {
		topic = "webhooks.captured"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	a := archiver.New(consumer, archiveRepo)

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> archiver started topic=%s group=%s batchSize=%d batchWait=%s",
		topic, groupID, a.BatchSize, a.BatchWait)

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
