package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/config"
	"github.com/spf13/cobra"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query...]",
	Short: "Show the policy passages retrieved for a query",
	Long: `Search the policy directory the way the assistant does and print the
best matching passages, without calling the model.

Each argument is one query. With no arguments a fixed pair of queries is
run ("dress code" and "leave without pay").

Examples:
  policychat retrieve
  policychat retrieve "maternity leave" --k 5
  policychat retrieve "dress code" --dir ./policies`,
	RunE: runRetrieve,
}

var defaultRetrieveQueries = []string{"dress code", "leave without pay"}

var (
	retrieveK   int
	retrieveDir string
)

func init() {
	retrieveCmd.Flags().IntVar(&retrieveK, "k", assistant.DefaultRetrieveK, "Number of passages per query")
	retrieveCmd.Flags().StringVar(&retrieveDir, "dir", "", "Policy directory (default from config, <config-dir>/policies)")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dir := cfg.Assistant.PolicyDir
	if retrieveDir != "" {
		dir = retrieveDir
	}
	ix, err := loadPolicies(dir, cfg.Assistant.ChunkChars)
	if err != nil {
		if assistant.IsMissingPolicyDir(err) {
			return fmt.Errorf("policy directory %q does not exist", dir)
		}
		return err
	}
	queries := args
	if len(queries) == 0 {
		queries = defaultRetrieveQueries
	}
	printRetrieval(cmd.OutOrStdout(), ix, queries, retrieveK)
	return nil
}

func printRetrieval(w io.Writer, ix *assistant.Index, queries []string, k int) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(w, "Indexed %d passages.\n\n%s\n\n", ix.Len(), rule)
	for _, q := range queries {
		fmt.Fprintf(w, "--- Results for %q ---\n", q)
		passages := ix.Search(q, k)
		if len(passages) == 0 {
			fmt.Fprintln(w, "No documents found for this query.")
		} else {
			fmt.Fprintf(w, "Found %d relevant chunks.\n\n", len(passages))
			for i, p := range passages {
				fmt.Fprintf(w, "--- Chunk %d (%s, score %.3f) ---\n%s\n%s\n", i+1, p.Source, p.Score, p.Text, strings.Repeat("-", 20))
			}
		}
		fmt.Fprintf(w, "\n%s\n\n", rule)
	}
}
