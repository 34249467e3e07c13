package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brandpulse/strategy-cli/internal/model"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored crawl results and generation history",
}

// -- results crawl --

var resultsCrawlType string

var resultsCrawlCmd = &cobra.Command{
	Use:   "crawl <strategy-id>",
	Short: "Show the latest crawl result for a strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("results"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		result, err := st.GetLatestCrawlResult(ctx, args[0], model.URLType(resultsCrawlType))
		if err != nil {
			return eris.Wrap(err, "results crawl")
		}
		if result == nil {
			fmt.Fprintln(os.Stderr, "No crawl result found.")
			return nil
		}

		printable := *result
		printable.Pages = nil
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(printable)
	},
}

// -- results generations --

var resultsGenLimit int

var resultsGenerationsCmd = &cobra.Command{
	Use:   "generations <strategy-id>",
	Short: "List generation history for a strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("results"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		gens, err := st.ListGenerations(ctx, args[0], resultsGenLimit)
		if err != nil {
			return eris.Wrap(err, "results generations")
		}
		if len(gens) == 0 {
			fmt.Fprintln(os.Stderr, "No generations found.")
			return nil
		}

		formatGenerationList(os.Stdout, gens)
		return nil
	},
}

func formatGenerationList(w io.Writer, gens []model.Generation) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCREATED\tCHARS")
	for _, gen := range gens {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			gen.ID, gen.Metadata.Type(), gen.CreatedAt.Format("2006-01-02 15:04"), len(gen.Content))
	}
	tw.Flush()
}

// -- results show --

var resultsShowCmd = &cobra.Command{
	Use:   "show <strategy-id> <type>",
	Short: "Show the latest generation of a type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("results"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		gen, err := st.LatestGeneration(ctx, args[0], args[1])
		if err != nil {
			return eris.Wrap(err, "results show")
		}
		if gen == nil {
			fmt.Fprintln(os.Stderr, "No generation found.")
			return nil
		}

		fmt.Println(gen.Content)
		return nil
	},
}

func init() {
	resultsCrawlCmd.Flags().StringVar(&resultsCrawlType, "type", "website", "URL type: website or product")
	resultsGenerationsCmd.Flags().IntVar(&resultsGenLimit, "limit", 20, "max rows to list")

	resultsCmd.AddCommand(resultsCrawlCmd, resultsGenerationsCmd, resultsShowCmd)
	rootCmd.AddCommand(resultsCmd)
}
