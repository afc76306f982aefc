package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/lmsquiz/internal/cache"
	"github.com/hyperifyio/lmsquiz/internal/lms"
	"github.com/hyperifyio/lmsquiz/internal/quiz"
)

// ErrNoQuestions is returned when no page yielded a single question. The CLI
// maps it to exit code 2.
var ErrNoQuestions = errors.New("no questions extracted")

// PageResult is one entry of the JSON output.
type PageResult struct {
	Source    string        `json:"source"`
	Questions []quiz.Record `json:"questions"`
}

type App struct {
	cfg       Config
	pageCache *cache.PageCache
	extractor quiz.Extractor
	session   *lms.Session
	stdout    io.Writer
}

func (c Config) extraction() quiz.Options {
	opts := quiz.Options{
		MatchingMaxLists: c.MatchingMaxLists,
		Workers:          c.Workers,
	}
	if c.MatchingItemTolerance >= 0 {
		opts.MatchingItemTolerance = quiz.ItemTolerance(c.MatchingItemTolerance)
	}
	return opts
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{
		cfg:       cfg,
		extractor: quiz.NewHeuristicExtractor(log.Logger, cfg.extraction()),
		stdout:    os.Stdout,
	}
	if cfg.CacheDir != "" && !cfg.NoCache && len(cfg.URLs) > 0 {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.pageCache = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	if len(cfg.URLs) > 0 {
		sess, err := lms.NewSession(
			lms.Credentials{Username: cfg.Username, Password: cfg.Password, BaseURL: cfg.BaseURL},
			lms.Options{
				Transport:  newLMSTransport(),
				Cache:      a.pageCache,
				Logger:     log.Logger,
				Extraction: cfg.extraction(),
			},
		)
		if err != nil {
			return nil, err
		}
		a.session = sess
	}
	return a, nil
}

func (a *App) Close() {}

// Run extracts every configured source and writes the JSON output. Output is
// written even when nothing was found; ErrNoQuestions is returned afterwards.
func (a *App) Run(ctx context.Context) error {
	var results []PageResult
	if a.cfg.InputPath != "" {
		b, err := os.ReadFile(a.cfg.InputPath)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		results = append(results, PageResult{Source: a.cfg.InputPath, Questions: a.extractor.Extract(string(b))})
	} else {
		if a.session == nil {
			return errors.New("no lms session configured")
		}
		if err := a.session.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		results = extractPages(ctx, a.session, a.cfg.URLs)
	}

	total := 0
	for _, r := range results {
		total += len(r.Questions)
	}
	if err := a.write(results); err != nil {
		return err
	}
	log.Info().Int("pages", len(results)).Int("questions", total).Msg("done")
	if total == 0 {
		return ErrNoQuestions
	}
	return nil
}

// pageExtractor is the part of lms.Session used by extractPages.
type pageExtractor interface {
	Extract(ctx context.Context, url string) ([]quiz.Record, error)
}

// extractPages handles each URL independently; failures are logged and the
// page is skipped.
func extractPages(ctx context.Context, src pageExtractor, urls []string) []PageResult {
	out := make([]PageResult, 0, len(urls))
	for _, u := range urls {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("stopping early")
			break
		}
		recs, err := src.Extract(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("fetch failed; skipping page")
			continue
		}
		out = append(out, PageResult{Source: u, Questions: recs})
	}
	return out
}

func (a *App) write(results []PageResult) error {
	if results == nil {
		results = []PageResult{}
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	b = append(b, '\n')
	if a.cfg.OutputPath == "" || a.cfg.OutputPath == "-" {
		_, err = a.stdout.Write(b)
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, b, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
