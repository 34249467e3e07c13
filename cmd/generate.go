package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	generateStrategy string
	generateModule   string
	generateVars     []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate strategy content for a module",
	Long:  "Renders the module's prompt over the latest crawl result plus any --var overrides, calls Claude, parses the reply, and appends it to generation history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("generate"); err != nil {
			return err
		}
		ctx := cmd.Context()

		vars, err := parseVars(generateVars)
		if err != nil {
			return err
		}

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out, err := engine.Generate(ctx, generateStrategy, generateModule, vars)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		zap.L().Info("generation complete",
			zap.String("generation_id", out.Generation.ID),
			zap.String("module", generateModule),
			zap.Bool("structured", out.Parsed.Structured()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Parsed)
	},
}

// parseVars turns repeated --var key=value flags into a variable map.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, eris.Errorf("invalid --var %q (want key=value)", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func init() {
	generateCmd.Flags().StringVar(&generateStrategy, "strategy", "", "strategy ID (required)")
	generateCmd.Flags().StringVar(&generateModule, "module", "", "content module, e.g. briefing, persona, seo, content_ideas (required)")
	generateCmd.Flags().StringArrayVar(&generateVars, "var", nil, "prompt variable as key=value (repeatable)")
	_ = generateCmd.MarkFlagRequired("strategy")
	_ = generateCmd.MarkFlagRequired("module")
	rootCmd.AddCommand(generateCmd)
}
