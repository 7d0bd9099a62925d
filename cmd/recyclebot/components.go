package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"recyclebot/internal/chat"
	"recyclebot/internal/chunker"
	"recyclebot/internal/classifier"
	"recyclebot/internal/config"
	"recyclebot/internal/demo"
	"recyclebot/internal/domain"
	"recyclebot/internal/embedding/cached"
	embedopenai "recyclebot/internal/embedding/openai"
	"recyclebot/internal/embedding/tfidf"
	"recyclebot/internal/llm/gemini"
	llmopenai "recyclebot/internal/llm/openai"
	"recyclebot/internal/service"
	"recyclebot/internal/summarizer"
	"recyclebot/internal/vectorstore/memory"
	"recyclebot/internal/vectorstore/pinecone"
	"recyclebot/internal/vectorstore/qdrant"
)

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		key, err := config.APIKey(cfg.Embedder.OpenAI.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		client, err := embedopenai.NewClient(embedopenai.Config{
			BaseURL: cfg.Embedder.OpenAI.BaseURL,
			APIKey:  key,
			Model:   cfg.Embedder.OpenAI.Model,
			Timeout: secs(cfg.Embedder.OpenAI.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if cfg.Embedder.CacheSize > 0 {
		return cached.New(emb, cfg.Embedder.CacheSize)
	}
	return emb, nil
}

func buildStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		var key string
		if q.APIKeyEnv != "" {
			key = os.Getenv(q.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     key,
			Collection: q.Collection,
			Timeout:    secs(q.TimeoutSecs),
		}), nil
	case "pinecone":
		p := cfg.VectorStore.Pinecone
		if p == nil {
			return nil, fmt.Errorf("pinecone config missing")
		}
		key, err := config.APIKey(p.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return pinecone.NewStorage(pinecone.Config{
			Host:      p.Host,
			APIKey:    key,
			Namespace: p.Namespace,
			Timeout:   secs(p.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

// buildGenerators returns the answering model and the cheaper model used to
// screen questions.
func buildGenerators(ctx context.Context, cfg *config.AppConfig) (answer, screen domain.Generator, err error) {
	switch cfg.Generator.Type {
	case "openai":
		g := cfg.Generator.OpenAI
		key, err := config.APIKey(g.APIKeyEnv)
		if err != nil {
			return nil, nil, err
		}
		mk := func(model string) (domain.Generator, error) {
			return llmopenai.NewGenerator(llmopenai.Config{
				BaseURL: g.BaseURL,
				APIKey:  key,
				Model:   model,
				Timeout: secs(g.TimeoutSecs),
			})
		}
		if answer, err = mk(g.Model); err != nil {
			return nil, nil, err
		}
		if screen, err = mk(g.ClassifierModel); err != nil {
			return nil, nil, err
		}
		return answer, screen, nil
	case "gemini":
		g := cfg.Generator.Gemini
		key, err := config.APIKey(g.APIKeyEnv)
		if err != nil {
			return nil, nil, err
		}
		mk := func(model string) (domain.Generator, error) {
			return gemini.NewGenerator(ctx, gemini.Config{APIKey: key, Model: model, Timeout: secs(g.TimeoutSecs)})
		}
		if answer, err = mk(g.Model); err != nil {
			return nil, nil, err
		}
		if screen, err = mk(g.ClassifierModel); err != nil {
			return nil, nil, err
		}
		return answer, screen, nil
	default:
		return nil, nil, fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}
}

func buildRAG(cfg *config.AppConfig, emb domain.Embedder, store domain.VectorStore, gen domain.Generator) (*service.RAGService, error) {
	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	return service.NewRAGService(ch, emb, store, sum, gen, service.Options{
		TopK:                cfg.VectorStore.TopK,
		SystemPrompt:        cfg.Responder.SystemPrompt,
		CondenseQuestion:    cfg.Responder.CondenseQuestion,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
	}), nil
}

// buildConversation assembles the classifier and responder every session
// shares. The in-memory store starts empty, so configured corpus paths are
// ingested before the first question.
func buildConversation(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (chat.Classifier, chat.Responder, error) {
	if cfg.Demo {
		log.Info().Msg("demo mode: canned answers, no hosted services")
		return classifier.AllowAll{}, demo.NewResponder(), nil
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	answerGen, screenGen, err := buildGenerators(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	rag, err := buildRAG(cfg, emb, store, answerGen)
	if err != nil {
		return nil, nil, err
	}

	if _, ok := store.(*memory.Storage); ok {
		if len(cfg.Corpus.Paths) == 0 {
			log.Warn().Msg("memory vector store with no corpus paths; answers will have no excerpts")
		} else {
			summary, err := rag.IngestDocuments(ctx, cfg.Corpus.Paths)
			if err != nil {
				return nil, nil, fmt.Errorf("ingest corpus: %w", err)
			}
			log.Info().Strs("paths", cfg.Corpus.Paths).Str("summary", summary).Msg("corpus indexed")
		}
	}

	var cls chat.Classifier = classifier.AllowAll{}
	if cfg.Classifier.Enabled {
		cls = classifier.New(screenGen)
	}
	log.Info().
		Str("embedder", emb.Name()).
		Str("vector_store", cfg.VectorStore.Type).
		Str("generator", answerGen.Name()).
		Bool("classifier", cfg.Classifier.Enabled).
		Msg("conversation pipeline ready")
	return cls, rag, nil
}
