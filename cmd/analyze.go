package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandpulse/strategy-cli/internal/model"
)

var (
	analyzeStrategy   string
	analyzeURL        string
	analyzeURLType    string
	analyzeProductURL string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Crawl and analyze a strategy URL",
	Long:  "Crawls the URL, extracts a summary, keywords, and detected technologies (falling back to metadata when the site blocks crawling), and stores the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		ctx := cmd.Context()

		urlType := model.URLType(analyzeURLType)
		if urlType != model.URLTypeWebsite && urlType != model.URLTypeProduct {
			return eris.Errorf("invalid url type %q (want website or product)", analyzeURLType)
		}

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// A product URL alongside the main one analyzes both concurrently.
		if analyzeProductURL != "" {
			results, err := engine.AnalyzeStrategy(ctx, analyzeStrategy, analyzeURL, analyzeProductURL)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
			printable := make(map[string]model.CrawlResult, len(results))
			for urlType, result := range results {
				p := *result
				p.Pages = nil
				printable[string(urlType)] = p
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(printable)
		}

		result, err := engine.AnalyzeWebsite(ctx, analyzeStrategy, urlType, analyzeURL)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.String("url", result.URL),
			zap.Bool("success", result.Success),
			zap.Bool("content_extracted", result.ContentExtracted),
			zap.Int("keywords", len(result.Keywords)),
			zap.Int("technologies", len(result.Technologies)),
		)

		// Full pages stay in the store; print the extracted features only.
		printable := *result
		printable.Pages = nil
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(printable)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStrategy, "strategy", "", "strategy ID (required)")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "URL to analyze (required)")
	analyzeCmd.Flags().StringVar(&analyzeURLType, "type", "website", "URL type: website or product")
	analyzeCmd.Flags().StringVar(&analyzeProductURL, "product-url", "", "product URL to analyze alongside --url")
	_ = analyzeCmd.MarkFlagRequired("strategy")
	_ = analyzeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(analyzeCmd)
}
