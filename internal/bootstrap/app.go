package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"legischat/internal/ai"
	"legischat/internal/app"
	"legischat/internal/cache"
	"legischat/internal/config"
	"legischat/internal/crawl"
	"legischat/internal/ingest"
	"legischat/internal/model"
	mysqlClient "legischat/internal/platform/mysql"
	rabbitmqClient "legischat/internal/platform/rabbitmq"
	redisClient "legischat/internal/platform/redis"
	"legischat/internal/repository"
	"legischat/internal/vectorindex/qdrant"
	"legischat/internal/worker"
)

type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Index       *qdrant.Store
	Coordinator *ingest.Coordinator
	ChatService *app.ChatService
	AuditWorker *worker.IngestAuditWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.IngestRun{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	index := qdrant.New(qdrant.Config{
		URL:        cfg.Index.URL,
		APIKey:     cfg.Index.APIKey,
		Collection: cfg.Index.Collection,
	})
	if err := index.EnsureCollection(ctx, cfg.Embedding.Dimension); err != nil {
		return nil, fmt.Errorf("ensure vector collection failed: %w", err)
	}

	llmClient := ai.NewOpenAICompatibleClient()
	generator := ai.NewGenerator(llmClient, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	answerModel := cfg.LLM.AnswerModel
	if answerModel == "" {
		answerModel = cfg.LLM.Model
	}
	answerer := ai.NewGenerator(llmClient, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   answerModel,
	})
	embedder := ai.NewEmbedder(llmClient, ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	})

	runPublisher := rabbitmqClient.NewIngestRunPublisher(mqConn, cfg.RabbitMQ.IngestRunQueue)
	runRepo := repository.NewIngestRunRepository(mysqlDB)
	auditWorker := worker.NewIngestAuditWorker(mqConn, runRepo, cfg.RabbitMQ.IngestRunQueue, logger)
	if err := auditWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest audit worker failed: %w", err)
	}

	fetcher := crawl.NewFetcher(cfg.Crawler.UserAgent, cfg.Crawler.RequestsPerSec)
	crawler := crawl.NewCrawler(fetcher, logger)
	coordinator, err := ingest.NewCoordinator(
		crawler,
		embedder,
		index,
		runPublisher,
		ingest.ChunkParams{MaxWords: cfg.Chunker.MaxWords, Overlap: cfg.Chunker.Overlap},
		cfg.Embedding.Dimension,
		cfg.Embedding.BatchSize,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build ingestion coordinator failed: %w", err)
	}

	historyCache := cache.NewHistoryCache(redisCli, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
	chatService := app.NewChatService(
		repository.NewConversationRepository(mysqlDB),
		repository.NewMessageRepository(mysqlDB),
		generator,
		answerer,
		embedder,
		index,
		historyCache,
		cfg.Index.TopK,
		logger,
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		Index:       index,
		Coordinator: coordinator,
		ChatService: chatService,
		AuditWorker: auditWorker,
		StartedAt:   time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
