package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/infra/archive"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/email"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-dataset-prep/internal/infra/minio"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/postgres"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/tracing"
	"github.com/fiapx/fiapx-dataset-prep/internal/usecase"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume dataset jobs from RabbitMQ until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd, a)
		},
	}
}

func runWorker(cmd *cobra.Command, a *app) error {
	cfg, log := a.cfg, a.log
	ctx := cmd.Context()

	log.Info("starting fiapx-dataset-prep worker")

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer tp.Shutdown(context.WithoutCancel(ctx))
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to postgres")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		UploadBucket:  cfg.MinIOUploadBucket,
		DatasetBucket: cfg.MinIODatasetBucket,
	})
	if err != nil {
		return errors.Wrap(err, "create minio storage")
	}
	if err := storage.EnsureBuckets(ctx); err != nil {
		return errors.Wrap(err, "ensure minio buckets")
	}

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return errors.Wrap(err, "connect to rabbitmq for publisher")
	}
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	if err != nil {
		return errors.Wrap(err, "create rabbitmq publisher")
	}
	defer pub.Close()

	uc := usecase.NewProcessJobUseCase(
		postgres.NewJobRepository(pool),
		storage,
		archive.NewZipCreator(),
		ffmpeg.NewExtractor(cfg.FFmpegPath, cfg.FFprobePath, cfg.FrameFormat, log),
		ffmpeg.NewClipExtractor(cfg.FFmpegPath, log),
		rabbitmq.NewStatusPublisher(pub),
		rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ),
		email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log),
		log,
		usecase.ProcessJobConfig{
			TempDir:       cfg.TempDir,
			MaxRetries:    cfg.MaxRetries,
			FrameInterval: cfg.FrameInterval,
		},
	)

	metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQJobQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQ,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	if err != nil {
		return errors.Wrap(err, "create consumer")
	}
	defer consumer.Close()

	log.Info("worker started, consuming messages", zap.String("queue", cfg.RabbitMQJobQueue))
	if err := consumer.Start(ctx); err != nil {
		return errors.Wrap(err, "consume")
	}

	log.Info("fiapx-dataset-prep worker stopped")
	return nil
}
