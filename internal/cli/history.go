package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored answers",
	Long: `List stored answers, newest first.

Examples:
  formfill history             # Last 20 answers
  formfill history --last 100  # Last 100 answers
  formfill history --json      # Machine-readable output`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// Flags
var (
	historyLast    int
	historyJSON    bool
	historyBackend string
)

const answerColumnWidth = 48

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 20, "Number of answers to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print records as JSON")
	historyCmd.Flags().StringVar(&historyBackend, "backend", "", "Answer backend URL (default: in-process store)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if historyBackend != "" {
		cfg.BackendURL = historyBackend
	}

	ctx := cmd.Context()
	answers, closeAnswers, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAnswers()

	records, err := answers.History(ctx, historyLast)
	if err != nil {
		return fmt.Errorf("failed to list answers: %w", err)
	}
	if historyJSON {
		return printJSON(cmd.OutOrStdout(), records)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No answers stored")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UPDATED\tINTENT\tQUESTION\tANSWER")
	fmt.Fprintln(w, "-------\t------\t--------\t------")
	for _, r := range records {
		updated := "-"
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", updated, r.Intent, truncate(r.Question, answerColumnWidth), truncate(r.Answer, answerColumnWidth))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
