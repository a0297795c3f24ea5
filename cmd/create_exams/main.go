package main

import (
	"fmt"
	"os"
	"path/filepath"

	"exambank/internal/config"
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
	log.Info("Exam creation starting up...")

	model, err := quota.Load(cfg.Paths.QuotaConfig)
	if err != nil {
		log.Fatal("Failed to load quota config", zap.Error(err))
	}

	repo := repository.NewFileArtifactRepository()

	pool, err := repo.LoadPool(cfg.Paths.ClassifiedPool)
	if err != nil {
		log.Fatal("Failed to load classified pool", zap.Error(err))
	}
	log.Info("Loaded classified pool", zap.Int("questions", len(pool)))

	svc := service.NewExamService(repo, service.NewAssembler(log), service.NewPatcher(log), log)

	scope := service.ParseUniquenessScope(cfg.Assembly.UniquenessScope)
	result, err := svc.CreateExams(pool, model, cfg.Assembly.SetNames, cfg.Assembly.Seed, scope, cfg.Paths.ExamDir)
	if err != nil {
		log.Fatal("Exam creation failed", zap.Error(err))
	}

	shortfalls := result.Shortfalls
	if shortfalls == nil {
		shortfalls = []domain.Shortfall{}
	}
	shortfallPath := filepath.Join(cfg.Paths.StatsDir, "insufficient_domains.json")
	if err := repo.SaveJSON(shortfallPath, shortfalls); err != nil {
		log.Warn("Failed to save shortfall report", zap.Error(err))
	}

	remainingPath := filepath.Join(cfg.Paths.StatsDir, "remaining_questions.json")
	if err := repo.SavePool(remainingPath, result.Remaining); err != nil {
		log.Warn("Failed to save remaining questions", zap.Error(err))
	}

	log.Info("Exam creation completed",
		zap.Int("sets", len(cfg.Assembly.SetNames)),
		zap.Int("shortfalls", len(shortfalls)),
		zap.Int("remaining", len(result.Remaining)))
}
