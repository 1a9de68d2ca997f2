package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"doubtsolver/internal/corpus"
	"doubtsolver/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Precompute embedding vectors for the corpus",
	Long: `Embed every chunk with the configured embedder and store the vectors
per grade, in the local vector file or in qdrant. Needed before serving
with scorer.type=embedding.

Examples:
  doubtsolver index
  doubtsolver index --config prod.yaml`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	c, err := corpus.NewLoader(cfg.Engine.CorpusPath, logger).Load()
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	if c.Len() == 0 {
		return fmt.Errorf("no chunk files found under %s", cfg.Engine.CorpusPath)
	}

	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return err
	}
	vectors, remote, err := openVectors(cfg.VectorStore)
	if err != nil {
		return err
	}
	if vectors != nil {
		defer vectors.Close()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Embedding %d chunks across %d grades with %s\n", c.Len(), len(c.Grades), emb.Name())

	bar := progressbar.NewOptions(c.Len(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	p := index.NewProducer(emb, vectors, remote, logger)
	p.Progress = func() { _ = bar.Add(1) }
	if err := p.Produce(cmd.Context(), c); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	_ = bar.Finish()

	if vectors != nil {
		fmt.Fprintf(out, "\nVectors stored at: %s\n", cfg.VectorStore.BoltPath)
	} else {
		fmt.Fprintf(out, "\nVectors stored in qdrant collections %s_grade_*\n", cfg.VectorStore.Qdrant.Collection)
	}
	return nil
}
