package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"scholarnet/internal/config"
	"scholarnet/internal/docstore"
	"scholarnet/internal/embedding"
	"scholarnet/internal/llm"
	"scholarnet/internal/mcq"
	"scholarnet/internal/qa"
	"scholarnet/internal/server"
	"scholarnet/internal/summarizer"
	"scholarnet/internal/vectorindex"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating embedder")
	}

	index, err := newIndex(ctx, cfg.Store, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector index")
	}

	completion, err := llm.NewClient(llm.Options{
		BaseURL: cfg.LLM.BaseURL,
		Key:     cfg.LLM.Key,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating completion client")
	}

	store := docstore.New(index)

	summEngine := summarizer.NewEngine(completion, store, summarizer.Config{
		Model:                cfg.LLM.Model,
		Temperature:          cfg.LLM.Temperature,
		DirectMaxChars:       cfg.Summarizer.DirectMaxChars,
		RefineMaxChars:       cfg.Summarizer.RefineMaxChars,
		ChunkSize:            cfg.Summarizer.ChunkSize,
		ChunkOverlap:         cfg.Summarizer.ChunkOverlap,
		BatchSize:            cfg.Summarizer.BatchSize,
		ChunkSummaryMaxWords: cfg.Summarizer.ChunkSummaryMaxWords,
		DirectInputCap:       cfg.Summarizer.DirectInputCap,
	})

	mcqEngine := mcq.NewEngine(completion, store, mcq.Config{
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		DirectMaxChars: cfg.MCQ.DirectMaxChars,
		ChunkSize:      cfg.MCQ.ChunkSize,
		MaxChunks:      cfg.MCQ.MaxChunks,
		ChunkInputCap:  cfg.MCQ.ChunkInputCap,
	})

	sessions := qa.NewSessionStore(qa.EvictionPolicy{
		TTL:         time.Duration(cfg.QA.SessionTTLMinutes) * time.Minute,
		MaxSessions: cfg.QA.MaxSessions,
	})
	qaEngine := qa.NewEngine(completion, index, sessions, qa.Config{
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		HistoryPairs: cfg.QA.HistoryPairs,
		ContextCap:   cfg.QA.ContextCap,
		RetrievalK:   cfg.QA.RetrievalK,
	})

	srv := server.New(store, summEngine, mcqEngine, qaEngine, sessions, cfg.Upload)

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Starting server")
		if err := srv.Start(cfg.Server.Address); err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}

func newEmbedder(cfg config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	if cfg.Provider == "ollama" {
		return embedding.NewOllamaEmbedder(cfg.BaseURL, cfg.Model)
	}
	return embedding.NewEmbedder(cfg.BaseURL, cfg.Key, cfg.Model)
}

func newIndex(ctx context.Context, cfg config.StoreConfig, embedder *embeddings.EmbedderImpl) (vectorindex.Index, error) {
	if cfg.Driver == "postgres" {
		sqldb, err := vectorindex.ConnectDB(cfg.Database.URL, cfg.Database.Password)
		if err != nil {
			return nil, err
		}
		return vectorindex.NewPostgresIndex(ctx, sqldb, cfg.Database.Debug, embedder)
	}
	return vectorindex.NewChromemIndex(cfg.Path, cfg.Collection, cfg.InMemory, embedder)
}
