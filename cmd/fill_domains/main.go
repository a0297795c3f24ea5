package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"exambank/internal/adapter"
	"exambank/internal/adapter/classifier"
	"exambank/internal/cache"
	"exambank/internal/config"
	"exambank/internal/database"
	"exambank/internal/domain"
	"exambank/internal/logger"
	"exambank/internal/quota"
	"exambank/internal/repository"
	"exambank/internal/service"
	"exambank/internal/util"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	runID := util.NewRunID()
	log := logger.Get().With(zap.String("run_id", runID))
	log.Info("Domain fill starting up...")

	model, err := quota.Load(cfg.Paths.QuotaConfig)
	if err != nil {
		log.Fatal("Failed to load quota config", zap.Error(err))
	}

	cacheAdapter := buildCacheAdapter(cfg, log)

	batchClassifier, err := classifier.NewOpenRouterClassifier(cfg.Classifier, model.Taxonomy, log)
	if err != nil {
		log.Fatal("Failed to initialize classifier", zap.Error(err))
	}

	repo := repository.NewFileArtifactRepository()

	pool, err := repo.LoadPool(cfg.Paths.Pool)
	if err != nil {
		log.Fatal("Failed to load question pool", zap.Error(err))
	}
	log.Info("Loaded question pool", zap.Int("questions", len(pool)))

	quarantined, err := repo.LoadQuarantine(cfg.Paths.Quarantine)
	if err != nil {
		log.Fatal("Failed to load quarantine", zap.Error(err))
	}
	readmit := make([]string, 0, len(quarantined))
	for _, rec := range quarantined {
		readmit = append(readmit, rec.ID())
	}
	if len(readmit) > 0 {
		log.Info("Re-admitting quarantined records", zap.Int("count", len(readmit)))
	}

	filler := service.NewDomainFiller(batchClassifier, cacheAdapter, service.FillerConfig{
		Model:     cfg.Classifier.Model,
		BatchSize: cfg.Classifier.BatchSize,
		MaxRounds: cfg.Classifier.MaxRounds,
		Workers:   cfg.Classifier.Workers,
	}, log)

	result, err := filler.Fill(context.Background(), pool, readmit)
	if err != nil {
		log.Fatal("Domain fill failed", zap.Error(err))
	}

	classifiedPool := make([]*domain.Question, 0, len(pool))
	for _, q := range pool {
		if q.IsClassified() {
			classifiedPool = append(classifiedPool, q)
		}
	}
	if err := repo.SavePool(cfg.Paths.ClassifiedPool, classifiedPool); err != nil {
		log.Fatal("Failed to save classified pool", zap.Error(err))
	}
	if err := repo.SaveQuarantine(cfg.Paths.Quarantine, result.Quarantine); err != nil {
		log.Fatal("Failed to save quarantine", zap.Error(err))
	}

	statsPath := filepath.Join(cfg.Paths.StatsDir, fmt.Sprintf("fill_stats_%s.json", runID))
	if err := repo.SaveJSON(statsPath, result.Stats); err != nil {
		log.Warn("Failed to save statistics artifact", zap.Error(err))
	}

	log.Info("Domain fill completed",
		zap.Int("classified", len(classifiedPool)),
		zap.Int("quarantined", result.Stats.Quarantined),
		zap.Int("rounds", result.Stats.Rounds))
}

// buildCacheAdapter wires the configured cache backend: redis for shared
// deployments, sqlite as the durable local fallback.
func buildCacheAdapter(cfg *config.Config, log *zap.Logger) domain.Cache {
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize Redis client", zap.Error(err))
		}
		log.Info("Redis classification cache initialized.")
		return adapter.NewRedisCacheAdapter(redisClient)
	case "sqlite":
		db, err := database.NewSQLXSQLiteDB(cfg.Cache.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open sqlite cache", zap.Error(err))
		}
		cacheAdapter, err := adapter.NewSQLiteCacheAdapter(db)
		if err != nil {
			log.Fatal("Failed to initialize sqlite cache", zap.Error(err))
		}
		log.Info("SQLite classification cache initialized.", zap.String("path", cfg.Cache.SQLitePath))
		return cacheAdapter
	default:
		log.Fatal("Unsupported cache backend", zap.String("backend", cfg.Cache.Backend))
		return nil
	}
}
