package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/slide-translator/internal/config"
	"github.com/MimeLyc/slide-translator/internal/deck/opc"
	"github.com/MimeLyc/slide-translator/internal/persistence"
	"github.com/MimeLyc/slide-translator/internal/pipeline"
	"github.com/MimeLyc/slide-translator/internal/provider"
	"github.com/MimeLyc/slide-translator/internal/translation"
	"github.com/MimeLyc/slide-translator/internal/watch"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

// usage:
//
//	slide-translator deck.pptx [more.pptx ...]   translate the given files
//	slide-translator watch                       scan DECK_DIRS on CRON_EXPR
func main() {
	// .env is optional, real environment wins
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	llm, err := provider.NewLLM(cfg.LLM)
	if err != nil {
		log.Fatal("Failed to create LLM provider: %v", err)
	}

	cache := translation.NewCache(cfg.Translate.CacheFile)
	if err := cache.Load(); err != nil {
		log.Warn("Failed to load translation cache, starting empty: %v", err)
	}

	translator := translation.NewService(llm, cache, cfg.Translate.MaxChunkSize)
	pipe := pipeline.New(opc.Open, translator, pipeline.Config{
		SourceLanguage:       cfg.Translate.SourceLanguage,
		TargetLanguage:       cfg.Translate.TargetLanguage.String(),
		MaxWorkers:           cfg.Translate.MaxWorkers,
		CleanupIntermediates: cfg.Translate.CleanupIntermediates,
	})

	args := os.Args[1:]
	if len(args) == 0 {
		log.Fatal("Usage: slide-translator <file.pptx> [more files ...] | watch")
	}

	ctx := context.Background()

	if len(args) == 1 && args[0] == "watch" {
		runWatch(ctx, *cfg, pipe)
		return
	}

	failed := 0
	for _, path := range args {
		result, err := pipe.ProcessFile(ctx, path)
		if err != nil {
			log.Error("Failed to translate %s: %v", path, err)
			failed++
			continue
		}
		log.Info("Translated %s -> %s", path, result.OutputPath)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runWatch blocks forever scanning deck directories on the configured
// schedule.
func runWatch(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline) {
	ledger, err := persistence.NewSQLiteStore(cfg.Watch.LedgerDB)
	if err != nil {
		log.Fatal("Failed to open ledger: %v", err)
	}
	defer ledger.Close()

	c := cron.New()
	svc := watch.NewRunnableService(cfg, pipe, ledger, c)
	if err := svc.Schedule(ctx); err != nil {
		log.Fatal("Failed to schedule watch service: %v", err)
	}

	c.Start()
	select {}
}
