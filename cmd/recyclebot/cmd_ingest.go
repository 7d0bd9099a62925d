package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"recyclebot/internal/vectorstore/memory"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file ...]",
	Short: "Index guidance documents",
	Long: `Chunk and embed .txt/.md guidance documents and replace the contents of the
configured vector index with them. Without arguments, corpus.paths from the
config is used.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = cfg.Corpus.Paths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents given and corpus.paths is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	if _, ok := store.(*memory.Storage); ok {
		log.Warn().Msg("memory vector store does not outlive this command; configure qdrant or pinecone to keep the index")
	}
	rag, err := buildRAG(cfg, emb, store, nil)
	if err != nil {
		return err
	}

	summary, err := rag.IngestDocuments(ctx, paths)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	log.Info().Strs("paths", paths).Str("vector_store", cfg.VectorStore.Type).Msg("documents indexed")
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}
