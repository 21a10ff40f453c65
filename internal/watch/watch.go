// Package watch scans configured directories on a cron schedule and feeds
// presentations that appeared since the previous trigger into the pipeline.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/slide-translator/internal/config"
	"github.com/MimeLyc/slide-translator/internal/persistence"
	"github.com/MimeLyc/slide-translator/internal/pipeline"
	"github.com/MimeLyc/slide-translator/pkg/file"
	"github.com/MimeLyc/slide-translator/pkg/icron"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

var deckExts = []string{".pptx", ".ppt"}

type Service struct {
	cfg             config.Config
	pipe            *pipeline.Pipeline
	ledger          *persistence.SQLiteStore
	lastTriggerTime time.Time
	cronExpr        string
	cron            *cron.Cron
}

func NewRunnableService(
	cfg config.Config,
	pipe *pipeline.Pipeline,
	ledger *persistence.SQLiteStore,
	c *cron.Cron,
) *Service {
	return &Service{
		cfg:      cfg,
		pipe:     pipe,
		ledger:   ledger,
		cronExpr: cfg.Watch.CronExpr,
		cron:     c,
	}
}

var singleflightGroup singleflight.Group

// Schedule registers the scan on the cron instance. The caller starts the
// cron. Overlapping triggers collapse into one scan via singleflight.
func (s *Service) Schedule(ctx context.Context) error {
	log.Info("Run watch service, schedule %q, dirs %v", s.cronExpr, s.cfg.Watch.DeckDirs)

	runFunc := func() {
		_, _, _ = singleflightGroup.Do("run", func() (any, error) {
			for _, dir := range s.cfg.Watch.DeckDirs {
				log.Info("Run in dir %s", dir)
				if err := s.run(ctx, dir); err != nil {
					log.Error("Failed to run in dir %s: %v", dir, err)
				}
			}
			s.lastTriggerTime = time.Now()
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cronExpr, runFunc)
	return err
}

func (s *Service) run(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("directory %s does not exist", dir)
	}

	targets, err := s.findTargetDecksInDir(ctx, dir)
	if err != nil {
		return err
	}
	log.Info("Found %d target decks in dir %s", len(targets), dir)

	targetLang := s.cfg.Translate.TargetLanguage.String()
	for _, path := range targets {
		result, err := s.pipe.ProcessFile(ctx, path)
		if err != nil {
			log.Error("Failed to translate deck %s: %v", path, err)
			continue
		}

		mark := persistence.ProcessedDocument{
			Path:         path,
			OutputPath:   result.OutputPath,
			SourceLang:   result.SourceLang,
			TargetLang:   targetLang,
			CharCount:    result.CharCount,
			TranslatedAt: time.Now(),
		}
		if err := s.ledger.Mark(ctx, mark); err != nil {
			log.Error("Failed to record deck %s in ledger: %v", path, err)
		}
	}
	return nil
}

// findTargetDecksInDir lists presentations modified since the previous
// trigger that are neither our own outputs nor already in the ledger.
func (s *Service) findTargetDecksInDir(ctx context.Context, dir string) ([]string, error) {
	startTime, err := s.startTime()
	if err != nil {
		return nil, fmt.Errorf("failed to get start time: %w", err)
	}
	log.Info("Start searching target deck files after time: %v", startTime)

	recentFiles, err := file.FindRecentAfter(dir, startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent files: %w", err)
	}

	targetLang := s.cfg.Translate.TargetLanguage.String()

	var targets []string
	for _, path := range recentFiles {
		if !isDeckFile(strings.ToLower(filepath.Ext(path))) {
			continue
		}
		// skip our own outputs
		if strings.HasSuffix(file.Stem(path), "_translated") {
			continue
		}

		processed, err := s.ledger.IsProcessed(ctx, path, targetLang)
		if err != nil {
			log.Error("Failed to check ledger for %s: %v", path, err)
			continue
		}
		if processed {
			log.Debug("Deck %s already translated to %s, skipping", path, targetLang)
			continue
		}

		targets = append(targets, path)
	}
	return targets, nil
}

func isDeckFile(ext string) bool {
	for _, e := range deckExts {
		if e == ext {
			return true
		}
	}
	return false
}

// startTime falls back to the previous cron trigger on the first run, capped
// at one week back when the schedule fires rarely.
func (s *Service) startTime() (time.Time, error) {
	if s.lastTriggerTime.IsZero() {
		cronSchedule, err := icron.GetTriggerInfo(s.cronExpr, time.Now())
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to get cron schedule: %w", err)
		}

		if time.Now().Add(-24 * 1 * time.Hour).Before(cronSchedule.Last) {
			return time.Now().Add(-24 * 7 * time.Hour), nil
		}
		return cronSchedule.Last, nil
	}

	return s.lastTriggerTime, nil
}
