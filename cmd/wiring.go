package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/quizgate/internal/cache"
	"github.com/abhisek/quizgate/internal/config"
	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/session"
	"github.com/abhisek/quizgate/internal/store"
)

// newOrchestrator builds the oracle provider and the session orchestrator.
// Every oracle call is logged to st's event repo and every gate
// resolution is recorded there.
func newOrchestrator(ctx context.Context, st *store.Store, logger *slog.Logger) (*session.Orchestrator, error) {
	llmCfg, err := llm.ResolveConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}
	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo())
	if err != nil {
		return nil, err
	}
	logger.Info("oracle ready", "provider", llmCfg.Provider, "model", provider.ModelID())

	return session.NewFromProvider(provider, sessionConfig(cfg.Quiz),
		session.WithRecorder(st.EventRepo()),
		session.WithLogger(logger),
	), nil
}

func sessionConfig(q config.QuizConfig) session.Config {
	c := session.DefaultConfig()
	c.Planner.SubtopicCount = q.SubtopicCount
	c.Composer.QuestionsPerSubtopic = q.QuestionsPerSubtopic
	c.Composer.MaxPriorQuestions = q.MaxPriorQuestions
	return c
}

var errNoSessionRepo = errors.New("the memory session backend keeps nothing between runs; use sqlite or redis")

// sessionRepo returns the persistent repository for the configured
// backend. The returned func releases it.
func sessionRepo(ctx context.Context, st *store.Store) (store.SessionRepo, func(), error) {
	switch cfg.Store.SessionBackend {
	case config.BackendSQLite:
		return st.SessionRepo(), func() {}, nil
	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return cache.NewSessionRepo(c.Client, cfg.Store.SessionTTL), func() { c.Close() }, nil
	case config.BackendMemory:
		return nil, nil, errNoSessionRepo
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Store.SessionBackend)
}

// sessionStore returns the session.Store for the configured backend.
func sessionStore(ctx context.Context, st *store.Store) (session.Store, func(), error) {
	if cfg.Store.SessionBackend == config.BackendMemory {
		return session.NewMemoryStore(), func() {}, nil
	}
	repo, release, err := sessionRepo(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRepoStore(repo), release, nil
}
