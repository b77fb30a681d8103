package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MemForge/internals/commons"
	"MemForge/internals/volatility"
	"MemForge/internals/worker"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// SQS variant of the worker for deployments where the platform runs on an
// SQS-compatible queue instead of Redis.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	if err := godotenv.Load(); err != nil {
		logger.Warning("Error loading .env file")
	}

	pluginConfig := flag.String("plugins", "", "Path to a TOML plugin table replacing the built-in set")
	flag.Parse()

	broker := worker.NewSQSBroker(worker.SQSConfig{
		Region:         commons.GetEnv("SQS_REGION"),
		Endpoint:       commons.GetEnv("SQS_ENDPOINT"),
		AccessKey:      commons.GetEnv("SQS_ACCESS_KEY"),
		SecretKey:      commons.GetEnv("SQS_SECRET_KEY"),
		TaskQueueURL:   commons.GetEnv("SQS_TASK_QUEUE_URL"),
		ResultQueueURL: commons.GetEnv("SQS_RESULT_QUEUE_URL"),
	}, logger)

	plugins := volatility.DefaultPluginTable()
	if *pluginConfig != "" {
		loaded, err := volatility.LoadPluginTable(*pluginConfig)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load plugin table")
		}
		plugins = loaded
	}

	handler := &volatility.Handler{
		Broker:  broker,
		Logger:  logger,
		Plugins: plugins,
	}
	if v := os.Getenv("PLUGIN_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			logger.WithError(err).Fatal("Invalid PLUGIN_TIMEOUT")
		}
		handler.Timeout = timeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("Exiting worker.")
		cancel()
	}()

	logger.Info("Polling SQS queue...")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping service.")
			return
		default:
		}

		msg, err := broker.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Error("Failed to receive task")
			time.Sleep(5 * time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := handler.Handle(ctx, msg); err != nil {
			logger.WithError(err).Error("Task failed")
		}
		if err := broker.Ack(ctx, msg); err != nil {
			logger.WithError(err).Error("Failed to ack task")
		}
	}
}
