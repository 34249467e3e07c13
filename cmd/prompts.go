package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brandpulse/strategy-cli/internal/model"
	"github.com/brandpulse/strategy-cli/internal/prompt"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt templates",
	Long:  "Commands for listing, viewing, and overriding the prompt templates used by generate.",
}

// -- prompts list --

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored overrides and built-in defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("prompts"); err != nil {
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

		stored, err := st.ListPrompts(ctx)
		if err != nil {
			return eris.Wrap(err, "prompts list")
		}

		overridden := make(map[string]model.PromptTemplate, len(stored))
		for _, tpl := range stored {
			overridden[tpl.Module] = tpl
		}

		formatPromptList(os.Stdout, overridden)
		return nil
	},
}

func formatPromptList(w io.Writer, overridden map[string]model.PromptTemplate) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tSOURCE\tUPDATED")
	seen := make(map[string]bool)
	for _, module := range prompt.Modules() {
		if tpl, ok := overridden[module]; ok {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", module, model.PromptSourceDatabase, tpl.UpdatedAt.Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t-\n", module, model.PromptSourceDefault)
		}
		seen[module] = true
	}
	// Overrides for modules without a built-in default.
	for module, tpl := range overridden {
		if !seen[module] {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", module, model.PromptSourceDatabase, tpl.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}
	tw.Flush()
}

// -- prompts show --

var promptsShowCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Show the effective template for a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("prompts"); err != nil {
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

		tpl, err := prompt.NewRegistry(st).Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "prompts show")
		}

		fmt.Printf("Module: %s\nSource: %s\n\n--- system ---\n%s\n--- user ---\n%s\n",
			tpl.Module, tpl.Source, tpl.SystemPrompt, tpl.UserPrompt)
		return nil
	},
}

// -- prompts set --

var (
	promptsSetSystem string
	promptsSetUser   string
)

var promptsSetCmd = &cobra.Command{
	Use:   "set <module>",
	Short: "Store a template override for a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("prompts"); err != nil {
			return err
		}
		ctx := cmd.Context()

		if promptsSetUser == "" {
			return eris.New("--user is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		err = st.UpsertPrompt(ctx, model.PromptTemplate{
			Module:       args[0],
			SystemPrompt: promptsSetSystem,
			UserPrompt:   promptsSetUser,
		})
		if err != nil {
			return eris.Wrap(err, "prompts set")
		}

		fmt.Printf("Stored override for %s.\n", args[0])
		return nil
	},
}

func init() {
	promptsSetCmd.Flags().StringVar(&promptsSetSystem, "system", "", "system prompt text")
	promptsSetCmd.Flags().StringVar(&promptsSetUser, "user", "", "user prompt template with {{var}} placeholders (required)")

	promptsCmd.AddCommand(promptsListCmd, promptsShowCmd, promptsSetCmd)
	rootCmd.AddCommand(promptsCmd)
}
