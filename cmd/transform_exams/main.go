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
	log.Info("Exam transformation starting up...")

	model, err := quota.Load(cfg.Paths.QuotaConfig)
	if err != nil {
		log.Fatal("Failed to load quota config", zap.Error(err))
	}

	repo := repository.NewFileArtifactRepository()

	index, err := repo.LoadVariantIndex(cfg.Paths.VariantDir)
	if err != nil {
		log.Fatal("Failed to load variant index", zap.Error(err))
	}
	log.Info("Loaded variant index", zap.Int("questions", len(index)))

	sub := service.NewSubstituter(log)

	// missing[kind] collects identifiers without a variant, across all sets.
	missing := make(map[domain.VariantKind][]string)

	for _, setName := range cfg.Assembly.SetNames {
		for _, examName := range model.ExamNames() {
			exam, err := repo.LoadExamSet(cfg.Paths.ExamDir, setName, examName)
			if err != nil {
				log.Fatal("Failed to load exam", zap.String("set", setName), zap.String("exam", examName), zap.Error(err))
			}
			if exam == nil {
				log.Warn("No exam artifact for set, skipping",
					zap.String("set", setName), zap.String("exam", examName))
				continue
			}

			for _, kind := range domain.VariantKinds {
				patched, miss := sub.Substitute(exam, index, kind)
				missing[kind] = append(missing[kind], miss...)

				outDir := filepath.Join(cfg.Paths.TransformedDir, string(kind))
				if err := repo.SaveExamSet(outDir, setName, examName, patched); err != nil {
					log.Fatal("Failed to save transformed exam",
						zap.String("set", setName),
						zap.String("exam", examName),
						zap.String("kind", string(kind)),
						zap.Error(err))
				}
			}
			log.Info("Transformed exam",
				zap.String("set", setName),
				zap.String("exam", examName),
				zap.Int("questions", len(exam)))
		}
	}

	missingPath := filepath.Join(cfg.Paths.StatsDir, "missing_variants.json")
	if err := repo.SaveJSON(missingPath, missing); err != nil {
		log.Warn("Failed to save missing-variant report", zap.Error(err))
	}

	log.Info("Exam transformation completed.")
}
