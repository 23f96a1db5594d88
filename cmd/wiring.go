package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/config"
	"github.com/papapumpkin/palimpsest/internal/match"
	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/store"
	"github.com/papapumpkin/palimpsest/internal/story"
	"github.com/papapumpkin/palimpsest/internal/telemetry"
	"github.com/papapumpkin/palimpsest/internal/transform"
	"github.com/papapumpkin/palimpsest/internal/variant"
)

func transformConfig(cfg config.Config) transform.Config {
	tc := transform.DefaultConfig()
	p := cfg.Policy
	tc.MaxBleed = p.MaxBleed
	tc.MaxJourney = p.MaxJourney
	tc.MaxRule = p.MaxRule
	tc.MaxTotal = p.MaxTotal
	tc.MaxSpans = p.MaxSpans
	tc.LoopStrength = p.LoopStrength
	tc.FocusImbalance = p.FocusImbalance
	tc.Volatility = p.Volatility
	tc.ThematicStrength = p.ThematicStrength
	tc.ConditionCacheSize = cfg.Cache.Conditions
	tc.RuleCacheSize = cfg.Cache.Rules
	tc.MasterCacheSize = cfg.Cache.Master
	tc.BleedCacheSize = cfg.Cache.Bleed
	return tc
}

func analyzerConfig(cfg config.Config) analyzer.Config {
	ac := analyzer.DefaultConfig()
	ac.CacheSize = cfg.Cache.Analyzer
	return ac
}

func variantConfig(cfg config.Config) variant.Config {
	return variant.Config{
		RecursiveThreshold: cfg.Policy.RecursiveThreshold,
		AttractorThreshold: cfg.Policy.AttractorThreshold,
		ParseCacheSize:     cfg.Cache.Parse,
		SelectCacheSize:    cfg.Cache.Select,
	}
}

func readerConfig(cfg config.Config) reader.Config {
	rc := reader.DefaultConfig()
	rc.RecentPathLen = cfg.RecentPathLen
	rc.Saturation = cfg.Saturation
	return rc
}

// runtime holds the collaborators a command builds from configuration.
type runtime struct {
	cfg     config.Config
	log     *slog.Logger
	emitter *telemetry.Emitter
	store   *store.Store
}

// newRuntime loads configuration and opens telemetry. The journey store is
// opened only when withStore is set.
func newRuntime(ctx context.Context, logOut io.Writer, withStore bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	rt := &runtime{cfg: cfg, log: newLogger(logOut, cfg.LogLevel)}

	if cfg.TelemetryPath != "" {
		if rt.emitter, err = telemetry.NewEmitter(cfg.TelemetryPath); err != nil {
			return nil, err
		}
	}
	if withStore {
		if rt.store, err = store.Open(ctx, cfg.DBPath); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
	rt.emitter.Close()
}

// session builds a reading session over st. With a store and a session ID,
// the stored journey is resumed and new events are persisted; an unknown ID
// starts a fresh journey under that ID.
func (rt *runtime) session(ctx context.Context, st *story.Story, sessionID string) (*reader.Session, error) {
	cfg := rt.cfg
	matchers := match.NewRegistry(cfg.Cache.Matchers, cfg.Cache.Matches)
	engine := transform.New(transformConfig(cfg),
		transform.WithLogger(rt.log),
		transform.WithAnalyzer(analyzer.New(analyzerConfig(cfg))),
		transform.WithMatchers(matchers),
	)
	opts := []reader.Option{
		reader.WithLogger(rt.log),
		reader.WithEmitter(rt.emitter),
		reader.WithEngine(engine),
		reader.WithSelector(variant.NewSelector(variantConfig(cfg))),
	}

	if rt.store != nil {
		if sessionID == "" {
			id, err := rt.store.CreateSession(ctx, st.Manifest.Story.Name)
			if err != nil {
				return nil, err
			}
			sessionID = id
		} else if err := rt.store.EnsureSession(ctx, sessionID, st.Manifest.Story.Name); err != nil {
			return nil, err
		}
		state, err := rt.store.Load(ctx, sessionID, cfg.Saturation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reader.WithJourney(sessionID, state), reader.WithRecorder(rt.store))
	} else if sessionID != "" {
		opts = append(opts, reader.WithJourney(sessionID, nil))
	}
	return reader.New(st, readerConfig(cfg), opts...), nil
}

// loadStory loads and validates the story at dir.
func loadStory(dir string) (*story.Story, error) {
	st, err := story.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading story %s: %w", dir, err)
	}
	if errs := story.Validate(st); len(errs) > 0 {
		return nil, fmt.Errorf("story %s has %d validation error(s); run palimpsest validate", dir, len(errs))
	}
	return st, nil
}
