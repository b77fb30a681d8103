package main

import (
	"context"
	"flag"
	"net/http"
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
	listenAddr := flag.String("addr", ":8082", "Listen address of the worker API")
	flag.Parse()

	redisURL := commons.GetEnv("REDIS_URL")
	outputRoot := commons.GetEnvDefault("OUTPUT_ROOT", "/var/lib/memforge/output")

	broker, err := worker.NewRedisBroker(redisURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create broker")
	}
	defer broker.Close()

	plugins := volatility.DefaultPluginTable()
	if *pluginConfig != "" {
		plugins, err = volatility.LoadPluginTable(*pluginConfig)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load plugin table")
		}
	}

	var uploader *worker.Uploader
	if os.Getenv("S3_BUCKET_NAME") != "" {
		uploader = worker.NewUploader(worker.S3Config{
			BucketName: commons.GetEnv("S3_BUCKET_NAME"),
			Region:     commons.GetEnv("S3_REGION"),
			Endpoint:   commons.GetEnv("S3_ENDPOINT"),
			AccessKey:  commons.GetEnv("S3_ACCESS_KEY"),
			SecretKey:  commons.GetEnv("S3_SECRET_KEY"),
		}, logger)
	}

	handler := &volatility.Handler{
		Broker:   broker,
		Logger:   logger,
		Plugins:  plugins,
		Uploader: uploader,
	}
	if v := os.Getenv("PLUGIN_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			logger.WithError(err).Fatal("Invalid PLUGIN_TIMEOUT")
		}
		handler.Timeout = timeout
	}

	janitor := worker.NewJanitor(outputRoot, 24*time.Hour, logger)
	if err := janitor.Start("@every 15m"); err != nil {
		logger.WithError(err).Fatal("Failed to start janitor")
	}
	defer janitor.Stop()

	api := worker.NewAPI(&commons.Server{Logger: logger}, volatility.TaskMetadata())
	go func() {
		logger.WithField("addr", *listenAddr).Info("Starting worker API")
		if err := http.ListenAndServe(*listenAddr, api.Router()); err != nil {
			logger.WithError(err).Error("Worker API stopped")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("Exiting worker.")
		cancel()
	}()

	consume(ctx, logger, broker, handler)
	logger.Info("Stopping service.")
}

func consume(ctx context.Context, logger *logrus.Logger, broker worker.Broker, handler *volatility.Handler) {
	logger.Info("Polling task queue...")
	for {
		select {
		case <-ctx.Done():
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
